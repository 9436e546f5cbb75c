package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/popstats/internal/utils"
)

// RedisConfig represents Redis backend configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379)
	Password string // Optional password
	DB       int    // Database number (default: 0)
	Prefix   string // Key prefix (default: "popstats")
}

// RedisStore keeps objects as Redis string values under <prefix>:<bucket>:<key>
type RedisStore struct {
	client *redis.Client
	bucket string
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg RedisConfig, bucket string) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), utils.StoreConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStoreWithClient(client, bucket, cfg.Prefix), nil
}

func newRedisStoreWithClient(client *redis.Client, bucket, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "popstats"
	}
	return &RedisStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, s.bucket, key)
}

// Exists reports whether key is stored
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, &TransportError{Op: "exists", Bucket: s.bucket, Key: key, Err: err}
	}
	return n > 0, nil
}

// Get returns the stored object
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &TransportError{Op: "get", Bucket: s.bucket, Key: key, Err: err}
	}
	return data, nil
}

// Put stores data under key without expiration
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	if err := s.client.Set(ctx, s.redisKey(key), data, 0).Err(); err != nil {
		return &TransportError{Op: "put", Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
