// Package redis stores records as plain string keys in Redis.
package redis

import (
	"context"
	stderrors "errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/store"
)

// Backend is a Redis store backend.
type Backend struct {
	client *goredis.Client
	prefix string
}

// Open connects to the server described by a redis:// or rediss:// URL.
func Open(ctx context.Context, rawURL string, poolSize int) (*Backend, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.NewConfigError("redis", "invalid connection URL", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WrapResource("ping", "redis", opts.Addr, err)
	}
	return NewWithClient(client, constants.RedisKeyPrefix), nil
}

// NewWithClient wraps an existing client. Keys are stored as prefix+key.
func NewWithClient(client *goredis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) redisKey(key store.Key) string {
	return b.prefix + key.String()
}

// Load implements store.Backend.
func (b *Backend) Load(ctx context.Context, key store.Key) ([]byte, error) {
	data, err := b.client.Get(ctx, b.redisKey(key)).Bytes()
	if stderrors.Is(err, goredis.Nil) {
		return nil, errors.NewNotFoundError("record", key.String())
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save implements store.Backend.
func (b *Backend) Save(ctx context.Context, key store.Key, value []byte) error {
	return b.client.Set(ctx, b.redisKey(key), value, 0).Err()
}

// Ping implements store.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return b.client.Close()
}

var _ store.Backend = (*Backend)(nil)
