// Package llm adapts the chat completion client to the summarizer and document chat domains.
package llm

import (
	"context"

	"github.com/yanqian/doc-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/doc-summarizer/internal/infra/resilience/circuitbreaker"
)

// Completer is the chat completion surface of chatgpt.Client.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error)
}

// GuardedClient routes completions through a circuit breaker so an unhealthy API
// fails fast and callers drop to their local fallbacks.
type GuardedClient struct {
	next    Completer
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedClient wraps next with breaker.
func NewGuardedClient(next Completer, breaker *circuitbreaker.CircuitBreaker) *GuardedClient {
	return &GuardedClient{next: next, breaker: breaker}
}

// CreateChatCompletion implements Completer.
func (c *GuardedClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.next.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return chatgpt.ChatCompletionResponse{}, err
	}
	return result.(chatgpt.ChatCompletionResponse), nil
}

// CreateChatCompletionStream implements Completer. Only stream setup counts toward the
// breaker; mid-stream failures are handled by the caller.
func (c *GuardedClient) CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.next.CreateChatCompletionStream(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(chatgpt.Stream), nil
}

var _ Completer = (*GuardedClient)(nil)
