package docstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"

	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
)

// MemoryStorage keeps blobs in memory. Useful for tests and local dev.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
}

type storedBlob struct {
	data     []byte
	mimeType string
	etag     string
}

// NewMemoryStorage constructs storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string]storedBlob)}
}

// Put stores a copy of data under key.
func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (docchat.StoredObject, error) {
	hash := md5.Sum(data)
	etag := hex.EncodeToString(hash[:])
	blob := storedBlob{data: append([]byte(nil), data...), mimeType: mimeType, etag: etag}

	s.mu.Lock()
	s.blobs[key] = blob
	s.mu.Unlock()
	return docchat.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     etag,
	}, nil
}

// Get returns a reader for the stored blob or docchat.ErrObjectNotFound.
func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, docchat.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Delete removes the blob. Missing keys are not an error.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

var _ docchat.ObjectStorage = (*MemoryStorage)(nil)
