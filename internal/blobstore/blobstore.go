// Package blobstore stages dataset and report objects in a bucket.
//
// Every backend honours the same contract: Exists reports absence as
// (false, nil), Get reports absence as ErrNotFound, and every other failure
// is a *TransportError. Put overwrites unconditionally; concurrent writers to
// one key are last-write-wins.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when the key has no object
var ErrNotFound = errors.New("blobstore: object not found")

// Store reads and writes whole objects in one bucket
type Store interface {
	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the object bytes or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte) error

	// Close releases backend connections
	Close() error
}

// TransportError wraps backend failures other than a missing object
type TransportError struct {
	Op     string // exists, get, put
	Bucket string
	Key    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blobstore %s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err marks a missing object
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidateKey rejects keys that cannot be stored portably across backends
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("blobstore: empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("blobstore: invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("blobstore: invalid key %q", key)
		}
	}
	if path.Clean(key) != key {
		return fmt.Errorf("blobstore: invalid key %q", key)
	}
	return nil
}

// PublicURL renders the public address of key. The template uses the
// {bucket} and {key} placeholders, e.g. https://{bucket}.s3.amazonaws.com/{key}.
func PublicURL(template, bucket, key string) string {
	return strings.NewReplacer("{bucket}", bucket, "{key}", key).Replace(template)
}
