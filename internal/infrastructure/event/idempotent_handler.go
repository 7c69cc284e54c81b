package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rentnest/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultIdempotencyPrefix = "event:"
)

// IdempotentHandler wraps an EventHandler so each event id is handled once.
// Alert matching runs behind it so a re-published PropertyListed does not
// email the same subscribers twice.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	logger  *zap.Logger
	ttl     time.Duration
	prefix  string
	skipped atomic.Int64
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyTTL sets how long a handled event id is remembered
func WithIdempotencyTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithIdempotencyPrefix namespaces event keys inside a shared store
func WithIdempotencyPrefix(prefix string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.prefix = prefix
	}
}

// NewIdempotentHandler wraps handler. A nil store disables duplicate suppression.
func NewIdempotentHandler(
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		handler: handler,
		store:   store,
		logger:  logger,
		ttl:     defaultIdempotencyTTL,
		prefix:  defaultIdempotencyPrefix,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the event types of the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle processes the event unless its id has already been claimed.
// A store outage degrades to at-least-once delivery.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.store == nil {
		return h.handler.Handle(ctx, event)
	}

	log := h.logger.With(
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	)
	key := h.prefix + event.EventID().String()

	reserved, err := h.store.Reserve(ctx, key, h.ttl)
	if err != nil {
		log.Warn("Idempotency store unavailable, handling event anyway", zap.Error(err))
	} else if !reserved {
		h.skipped.Add(1)
		log.Debug("Duplicate event skipped")
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		log.Error("Event handler failed", zap.Error(err))
		// release so a redelivery can retry
		if reserved {
			if relErr := h.store.Release(ctx, key); relErr != nil {
				log.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		return err
	}
	return nil
}

// Skipped reports how many duplicate deliveries were dropped
func (h *IdempotentHandler) Skipped() int64 {
	return h.skipped.Load()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
