package blobstore

import (
	"fmt"
	"strings"

	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/utils"
)

// NewStore creates the Store for bucket described by cfg.
// Default is the filesystem backend if type is not specified.
func NewStore(cfg config.StorageConfig, bucket string) (Store, error) {
	storeType := utils.StoreType(strings.ToLower(cfg.Type))
	if storeType == "" {
		storeType = utils.StoreTypeFilesystem
	}

	var (
		store Store
		err   error
	)

	switch storeType {
	case utils.StoreTypeMemory:
		store = NewMemoryStore(bucket)

	case utils.StoreTypeFilesystem:
		store, err = NewFilesystemStore(cfg.DataDir, bucket)

	case utils.StoreTypeRedis:
		store, err = NewRedisStore(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, bucket)

	case utils.StoreTypeNATS:
		store, err = NewNATSStore(cfg.URL, bucket)

	default:
		return nil, fmt.Errorf("unsupported storage type: %s (supported: memory, filesystem, redis, nats)", storeType)
	}
	if err != nil {
		return nil, err
	}

	switch utils.CompressionType(strings.ToLower(cfg.Compression)) {
	case "", utils.CompressionNone:
		return store, nil
	case utils.CompressionSnappy:
		return NewSnappyStore(store, bucket), nil
	default:
		_ = store.Close()
		return nil, fmt.Errorf("unsupported compression: %s (supported: none, snappy)", cfg.Compression)
	}
}
