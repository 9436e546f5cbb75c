package blobstore

import (
	"context"
	"fmt"

	"github.com/golang/snappy"
)

// SnappyStore compresses objects with Snappy before handing them to the
// wrapped store, and decompresses them on the way out.
type SnappyStore struct {
	inner  Store
	bucket string
}

// NewSnappyStore wraps inner, which holds bucket, with Snappy compression
func NewSnappyStore(inner Store, bucket string) *SnappyStore {
	return &SnappyStore{inner: inner, bucket: bucket}
}

// Exists delegates to the wrapped store
func (s *SnappyStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

// Get fetches and decompresses the object
func (s *SnappyStore) Get(ctx context.Context, key string) ([]byte, error) {
	compressed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(compressed) == 0 {
		return compressed, nil
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, &TransportError{Op: "get", Bucket: s.bucket, Key: key, Err: fmt.Errorf("snappy decompress failed: %w", err)}
	}
	return data, nil
}

// Put compresses and stores the object
func (s *SnappyStore) Put(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return s.inner.Put(ctx, key, data)
	}
	return s.inner.Put(ctx, key, snappy.Encode(nil, data))
}

// Close closes the wrapped store
func (s *SnappyStore) Close() error {
	return s.inner.Close()
}
