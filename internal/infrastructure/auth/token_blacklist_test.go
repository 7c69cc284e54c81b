package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("redis blacklist test needs docker; skipped in -short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// blacklistContract runs the same checks against every implementation
func blacklistContract(t *testing.T, blacklist auth.TokenBlacklist) {
	ctx := context.Background()

	t.Run("single token", func(t *testing.T) {
		require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-logout", time.Hour))

		revoked, err := blacklist.IsBlacklisted(ctx, "jti-logout")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = blacklist.IsBlacklisted(ctx, "jti-other")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("every session of a user", func(t *testing.T) {
		earlier := time.Now().Add(-time.Hour)

		invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "renter-1", earlier)
		require.NoError(t, err)
		assert.False(t, invalidated)

		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "renter-1", time.Hour))

		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "renter-1", earlier)
		require.NoError(t, err)
		assert.True(t, invalidated)

		// issued a moment before the cut-off, in the same second
		justBefore := time.Now()
		require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "renter-3", time.Hour))
		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "renter-3", justBefore)
		require.NoError(t, err)
		assert.True(t, invalidated)

		// a bare iat names only the second, which includes the cut-off
		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "renter-3", justBefore.Truncate(time.Second))
		require.NoError(t, err)
		assert.True(t, invalidated)

		// a token issued after the cut-off is a fresh login
		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "renter-1", time.Now().Add(2*time.Second))
		require.NoError(t, err)
		assert.False(t, invalidated)

		invalidated, err = blacklist.IsUserTokenInvalidated(ctx, "landlord-1", earlier)
		require.NoError(t, err)
		assert.False(t, invalidated)
	})
}

func TestInMemoryTokenBlacklist(t *testing.T) {
	blacklistContract(t, auth.NewInMemoryTokenBlacklist())
}

func TestInMemoryTokenBlacklist_EntriesExpire(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-short", time.Millisecond))
	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "renter-2", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	revoked, err := blacklist.IsBlacklisted(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, revoked)

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, "renter-2", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, invalidated)
}

func TestRedisTokenBlacklist(t *testing.T) {
	client := newRedisClient(t)
	blacklistContract(t, auth.NewRedisTokenBlacklistWithClient(client))

	ttl, err := client.TTL(context.Background(), "rentnest:token:blacklist:jti:jti-logout").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestRedisTokenBlacklist_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	blacklist := auth.NewRedisTokenBlacklistWithClient(client)

	_, err := blacklist.IsBlacklisted(context.Background(), "jti")
	assert.ErrorContains(t, err, "check revoked token")
}
