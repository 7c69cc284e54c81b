package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewBroker returns a Redis-backed broker when a client is available and a process-local one otherwise
func NewBroker(ctx context.Context, client *redis.Client, cfg config.RealtimeConfig, logger *zap.Logger) (messaging.Broker, error) {
	if client == nil {
		logger.Warn("Redis disabled, realtime notifications reach only clients on this instance")
		return NewInMemoryBroker(cfg.ClientBuffer, logger), nil
	}

	b := NewRedisBroker(client, cfg.ClientBuffer, WithChannel(cfg.Channel), WithLogger(logger))
	if err := b.Start(ctx); err != nil {
		return nil, err
	}
	return b, nil
}
