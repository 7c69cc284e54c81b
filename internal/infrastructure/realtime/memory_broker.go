package realtime

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/messaging"
	"go.uber.org/zap"
)

// InMemoryBroker delivers notifications to listeners in this process only
type InMemoryBroker struct {
	hub *hub
}

// NewInMemoryBroker creates a process-local broker
func NewInMemoryBroker(buffer int, logger *zap.Logger) *InMemoryBroker {
	return &InMemoryBroker{hub: newHub(buffer, logger)}
}

// Publish delivers the notification to the recipient's local listeners
func (b *InMemoryBroker) Publish(_ context.Context, n messaging.Notification) error {
	b.hub.dispatch(n)
	return nil
}

// Subscribe registers a listener for a user's notifications
func (b *InMemoryBroker) Subscribe(userID uuid.UUID) (<-chan messaging.Notification, func()) {
	return b.hub.subscribe(userID)
}

// Close disconnects every listener
func (b *InMemoryBroker) Close() error {
	b.hub.closeAll()
	return nil
}

// ListenerCount returns the number of open listeners
func (b *InMemoryBroker) ListenerCount() int {
	return b.hub.listenerCount()
}

// Ensure InMemoryBroker implements Broker
var _ messaging.Broker = (*InMemoryBroker)(nil)
