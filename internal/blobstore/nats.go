package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/soltixdb/popstats/internal/utils"
)

// NATSStore keeps objects in a JetStream object store bucket
type NATSStore struct {
	conn   *nats.Conn
	obs    jetstream.ObjectStore
	bucket string
	ownsNC bool
}

// NewNATSStore connects to NATS and opens (or creates) the object store
func NewNATSStore(url, bucket string) (*NATSStore, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	store, err := newNATSStoreWithConn(conn, bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}
	store.ownsNC = true
	return store, nil
}

// newNATSStoreWithConn opens the object store on an existing connection (used in tests)
func newNATSStoreWithConn(conn *nats.Conn, bucket string) (*NATSStore, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.StoreConnectTimeout)
	defer cancel()

	name := sanitizeBucketName(bucket)
	obs, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:  name,
		Storage: jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open object store %s: %w", name, err)
	}

	return &NATSStore{conn: conn, obs: obs, bucket: bucket}, nil
}

// Exists reports whether key is stored
func (s *NATSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.obs.GetInfo(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &TransportError{Op: "exists", Bucket: s.bucket, Key: key, Err: err}
	}
	return true, nil
}

// Get returns the stored object
func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.obs.GetBytes(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &TransportError{Op: "get", Bucket: s.bucket, Key: key, Err: err}
	}
	return data, nil
}

// Put stores data under key, replacing the previous revision
func (s *NATSStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	if _, err := s.obs.PutBytes(ctx, key, data); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

// Close closes the connection when the store opened it
func (s *NATSStore) Close() error {
	if s.ownsNC {
		s.conn.Close()
	}
	return nil
}

// sanitizeBucketName maps a bucket name onto the characters JetStream
// accepts for object store names: A-Z, a-z, 0-9, dash and underscore.
func sanitizeBucketName(bucket string) string {
	result := make([]byte, 0, len(bucket))
	for i := 0; i < len(bucket); i++ {
		c := bucket[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
