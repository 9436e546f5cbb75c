package blobstore

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in process memory.
// Useful for tests and local development.
type MemoryStore struct {
	bucket  string
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory bucket
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string][]byte),
	}
}

// Exists reports whether key is stored
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &TransportError{Op: "exists", Bucket: s.bucket, Key: key, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Get returns a copy of the stored object
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Op: "get", Bucket: s.bucket, Key: key, Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of data
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	s.mu.Lock()
	s.objects[key] = dataCopy
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// Keys returns the stored keys (for testing)
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
