package summarycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
)

// ValkeyCache stores summaries as JSON strings in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "summary"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, key string) (summarizer.Response, bool, error) {
	if key == "" {
		return summarizer.Response{}, false, nil
	}
	cmd := c.client.B().Get().Key(c.entryKey(key)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return summarizer.Response{}, false, nil
		}
		return summarizer.Response{}, false, err
	}
	var resp summarizer.Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return summarizer.Response{}, false, err
	}
	return resp, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, key string, resp summarizer.Response, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

var _ summarizer.Cache = (*ValkeyCache)(nil)
