package cache

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rentnest/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrRedisRequired is returned when Redis is disabled and the in-memory
// fallback is not allowed, as in production
var ErrRedisRequired = errors.New("redis required for idempotency but not configured")

type storeOptions struct {
	logger        *zap.Logger
	allowFallback bool
	prefix        string
}

// StoreOption configures NewIdempotencyStore
type StoreOption func(*storeOptions)

// WithLogger reports which backend was chosen
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) { o.logger = logger }
}

// WithInMemoryFallback controls whether a nil client yields an in-memory store. Default true.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) { o.allowFallback = allow }
}

// WithKeyPrefix namespaces Redis keys
func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) { o.prefix = prefix }
}

// NewIdempotencyStore returns a Redis-backed store when client is set and an
// in-memory one otherwise. Payments and alert matching share the result.
func NewIdempotencyStore(client *redis.Client, opts ...StoreOption) (shared.IdempotencyStore, error) {
	o := storeOptions{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if client != nil {
		o.logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStoreWithClient(client, o.prefix), nil
	}
	if !o.allowFallback {
		return nil, ErrRedisRequired
	}
	o.logger.Warn("Redis disabled, idempotency keys are held in memory on this instance only")
	return NewInMemoryIdempotencyStore(), nil
}
