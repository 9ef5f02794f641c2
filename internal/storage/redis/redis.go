// Package redis implements the Redis durable backend via go-redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

// Backend stores cache records as JSON strings in Redis.
type Backend struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
	cfg       config.RedisBackendConfig
}

// New creates a Redis backend and verifies the connection.
func New(ctx context.Context, cfg config.RedisBackendConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, alterrors.Wrap(alterrors.CodeInvalidConfig, "connecting to redis", err).
			WithComponent("redis")
	}

	return NewFromClient(client, cfg, logger), nil
}

// NewFromClient creates a backend around an existing client; tests
// pass a client pointed at miniredis.
func NewFromClient(client *redis.Client, cfg config.RedisBackendConfig, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "altseek:cache:"
	}
	return &Backend{
		client:    client,
		keyPrefix: prefix,
		logger:    logger.Named("redis"),
		cfg:       cfg,
	}
}

// Name identifies the backend in logs and stats.
func (b *Backend) Name() string {
	return "redis"
}

// Save stores the record, applying the configured TTL when set.
func (b *Backend) Save(ctx context.Context, key string, rec *types.Record) bool {
	data, err := json.Marshal(rec)
	if err != nil {
		b.logger.Warn("marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := b.client.Set(ctx, b.keyPrefix+key, data, b.cfg.TTL).Err(); err != nil {
		b.logger.Warn("set failed",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeStorageWrite, "redis set", err)))
		return false
	}
	return true
}

// Load retrieves a record, returning nil when absent or unreadable.
func (b *Backend) Load(ctx context.Context, key string) *types.Record {
	data, err := b.client.Get(ctx, b.keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			b.logger.Warn("get failed",
				zap.String("key", key),
				zap.Error(alterrors.Wrap(alterrors.CodeStorageRead, "redis get", err)))
		}
		return nil
	}

	var rec types.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		b.logger.Warn("corrupt record left for inspection",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeRecordCorrupt, "parsing record", err)))
		return nil
	}
	return &rec
}

// Close releases the client connection.
func (b *Backend) Close() error {
	return b.client.Close()
}
