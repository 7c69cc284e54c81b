package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/messaging"
	"go.uber.org/zap"
)

const defaultClientBuffer = 100

// hub tracks the local listeners of each user and delivers notifications to them
type hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan messaging.Notification]struct{}
	buffer      int
	logger      *zap.Logger
}

func newHub(buffer int, logger *zap.Logger) *hub {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &hub{
		subscribers: make(map[uuid.UUID]map[chan messaging.Notification]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

func (h *hub) subscribe(userID uuid.UUID) (<-chan messaging.Notification, func()) {
	ch := make(chan messaging.Notification, h.buffer)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan messaging.Notification]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[userID]; ok {
				if _, ok := subs[ch]; ok {
					delete(subs, ch)
					close(ch)
				}
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
		})
	}
	return ch, cancel
}

// dispatch delivers without blocking; a slow client loses the notification
func (h *hub) dispatch(n messaging.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[n.RecipientID] {
		select {
		case ch <- n:
		default:
			h.logger.Warn("Dropping realtime notification for slow client",
				zap.String("recipient_id", n.RecipientID.String()),
				zap.String("message_id", n.MessageID.String()))
		}
	}
}

// closeAll closes every listener channel
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, userID)
	}
}

// listenerCount returns the number of open listeners (for testing/monitoring)
func (h *hub) listenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subs := range h.subscribers {
		n += len(subs)
	}
	return n
}
