package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire. Single tokens are revoked
// by jti; "log out everywhere" records a cut-off, and tokens issued before it
// are rejected.
type TokenBlacklist interface {
	// AddToBlacklist revokes one token; ttl should be its remaining lifetime
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// AddUserTokensToBlacklist revokes every token issued to userID until now
	AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// issuedBefore reports whether a token issued at issuedAt is covered by a
// cut-off taken at cutoff (Unix microseconds). A token carrying only a
// second-precision iat is compared by the start of its second, so one issued
// in the cut-off second counts as revoked.
func issuedBefore(issuedAt time.Time, cutoff int64) bool {
	return issuedAt.UnixMicro() <= cutoff
}

// RedisTokenBlacklist shares revocations across API instances
type RedisTokenBlacklist struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenBlacklistWithClient stores revocations through client. The
// client stays owned by the caller.
func NewRedisTokenBlacklistWithClient(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, prefix: "rentnest:token:blacklist:"}
}

func (b *RedisTokenBlacklist) key(kind, id string) string {
	return b.prefix + kind + ":" + id
}

// AddToBlacklist implements TokenBlacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.key("jti", jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsBlacklisted implements TokenBlacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key("jti", jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// AddUserTokensToBlacklist implements TokenBlacklist
func (b *RedisTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.key("user", userID), time.Now().UnixMicro(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// IsUserTokenInvalidated implements TokenBlacklist
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	cutoff, err := b.client.Get(ctx, b.key("user", userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked user tokens: %w", err)
	}
	return issuedBefore(issuedAt, cutoff), nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process. Other instances do
// not see them, so it only suits single-instance and test deployments.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	tokens  map[string]time.Time // jti -> entry expiry
	cutoffs map[string]cutoff    // user id -> revocation
	now     func() time.Time
}

type cutoff struct {
	at      int64 // Unix microseconds
	expires time.Time
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]cutoff),
		now:     time.Now,
	}
}

// AddToBlacklist implements TokenBlacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = b.now().Add(ttl)
	return nil
}

// IsBlacklisted implements TokenBlacklist; expired entries are dropped on read
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expires, ok := b.tokens[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expires) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

// AddUserTokensToBlacklist implements TokenBlacklist
func (b *InMemoryTokenBlacklist) AddUserTokensToBlacklist(_ context.Context, userID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.cutoffs[userID] = cutoff{at: now.UnixMicro(), expires: now.Add(ttl)}
	return nil
}

// IsUserTokenInvalidated implements TokenBlacklist
func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.cutoffs[userID]
	if !ok {
		return false, nil
	}
	if b.now().After(c.expires) {
		delete(b.cutoffs, userID)
		return false, nil
	}
	return issuedBefore(issuedAt, c.at), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
