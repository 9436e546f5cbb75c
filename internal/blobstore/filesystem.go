package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemStore keeps each bucket as a directory under a root directory.
// Writes go through a temporary file in the same directory and a rename, so
// readers never observe a partially written object.
type FilesystemStore struct {
	bucket string
	dir    string
}

// NewFilesystemStore creates the bucket directory under root if needed
func NewFilesystemStore(root, bucket string) (*FilesystemStore, error) {
	if err := ValidateKey(bucket); err != nil {
		return nil, fmt.Errorf("invalid bucket name %q: %w", bucket, err)
	}
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bucket directory %s: %w", dir, err)
	}
	return &FilesystemStore{bucket: bucket, dir: dir}, nil
}

func (s *FilesystemStore) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

// Exists reports whether an object file exists for key
func (s *FilesystemStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, &TransportError{Op: "exists", Bucket: s.bucket, Key: key, Err: err}
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &TransportError{Op: "exists", Bucket: s.bucket, Key: key, Err: err}
	}
	return !info.IsDir(), nil
}

// Get reads the object file for key
func (s *FilesystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, &TransportError{Op: "get", Bucket: s.bucket, Key: key, Err: err}
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &TransportError{Op: "get", Bucket: s.bucket, Key: key, Err: err}
	}
	return data, nil
}

// Put writes the object file for key
func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	if err := s.writeAtomic(p, data); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

func (s *FilesystemStore) writeAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}

// Close is a no-op
func (s *FilesystemStore) Close() error {
	return nil
}
