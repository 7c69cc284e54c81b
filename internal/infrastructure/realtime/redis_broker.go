package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rentnest/backend/internal/domain/messaging"
	"go.uber.org/zap"
)

const (
	defaultChannel      = "rentnest:messages"
	defaultCloseTimeout = 5 * time.Second
)

// RedisBroker fans notifications out across API instances through Redis Pub/Sub.
// Every instance publishes to one channel and delivers what it receives to its local listeners.
type RedisBroker struct {
	client   *redis.Client
	channel  string
	hub      *hub
	logger   *zap.Logger
	cancelFn context.CancelFunc
	doneCh   chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// RedisBrokerOption is a functional option for configuring the broker
type RedisBrokerOption func(*RedisBroker)

// WithChannel sets the Pub/Sub channel name
func WithChannel(channel string) RedisBrokerOption {
	return func(b *RedisBroker) {
		if channel != "" {
			b.channel = channel
		}
	}
}

// WithLogger sets the logger for the broker
func WithLogger(logger *zap.Logger) RedisBrokerOption {
	return func(b *RedisBroker) {
		b.logger = logger
	}
}

// NewRedisBroker creates a broker on a shared Redis client.
// The caller retains ownership of the client.
func NewRedisBroker(client *redis.Client, buffer int, opts ...RedisBrokerOption) *RedisBroker {
	b := &RedisBroker{
		client:  client,
		channel: defaultChannel,
		logger:  zap.NewNop(),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.hub = newHub(buffer, b.logger)
	return b
}

// Start subscribes to the channel and relays messages until ctx is cancelled or Close is called.
// It returns once the subscription is confirmed.
func (b *RedisBroker) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	b.running = true
	subCtx, cancel := context.WithCancel(ctx)
	b.cancelFn = cancel
	b.mu.Unlock()

	pubsub := b.client.Subscribe(subCtx, b.channel)
	if _, err := pubsub.Receive(subCtx); err != nil {
		_ = pubsub.Close()
		cancel()
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		return fmt.Errorf("failed to subscribe to channel %s: %w", b.channel, err)
	}

	b.logger.Info("Subscribed to realtime channel", zap.String("channel", b.channel))
	go b.relay(subCtx, pubsub)
	return nil
}

func (b *RedisBroker) relay(ctx context.Context, pubsub *redis.PubSub) {
	defer func() {
		_ = pubsub.Close()
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		b.doneOnce.Do(func() { close(b.doneCh) })
	}()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Realtime subscription stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warn("Realtime channel closed")
				return
			}
			var n messaging.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				b.logger.Error("Failed to unmarshal realtime notification",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			b.hub.dispatch(n)
		}
	}
}

// Publish sends the notification to every instance
func (b *RedisBroker) Publish(ctx context.Context, n messaging.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish realtime notification",
			zap.String("channel", b.channel),
			zap.Error(err))
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Subscribe registers a local listener for a user's notifications
func (b *RedisBroker) Subscribe(userID uuid.UUID) (<-chan messaging.Notification, func()) {
	return b.hub.subscribe(userID)
}

// Close stops the subscription and disconnects local listeners
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	cancelFn := b.cancelFn
	running := b.running
	b.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		if running {
			select {
			case <-b.doneCh:
			case <-time.After(defaultCloseTimeout):
				b.logger.Warn("Timeout waiting for realtime subscription to stop")
			}
		}
	}
	b.hub.closeAll()
	return nil
}

// Channel returns the Pub/Sub channel name
func (b *RedisBroker) Channel() string {
	return b.channel
}

// Ensure RedisBroker implements Broker
var _ messaging.Broker = (*RedisBroker)(nil)
