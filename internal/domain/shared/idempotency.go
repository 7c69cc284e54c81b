package shared

import (
	"context"
	"time"
)

// IdempotencyStore guards client-supplied idempotency keys against concurrent reuse
type IdempotencyStore interface {
	// Reserve claims key for ttl.
	// Returns false if another request already holds the key.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim so the key can be retried
	Release(ctx context.Context, key string) error

	Close() error
}
