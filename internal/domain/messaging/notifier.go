package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is the real-time payload pushed to a conversation participant
type Notification struct {
	RecipientID    uuid.UUID `json:"recipient_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
}

// NewNotification builds the push payload for a stored message
func NewNotification(recipient uuid.UUID, m *Message) Notification {
	return Notification{
		RecipientID:    recipient,
		ConversationID: m.ConversationID,
		MessageID:      m.ID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		SentAt:         m.CreatedAt,
	}
}

// Broker fans message notifications out to connected clients, possibly across instances
type Broker interface {
	Publish(ctx context.Context, n Notification) error

	// Subscribe registers a listener for a user's notifications.
	// The returned cancel func must be called to release it.
	Subscribe(userID uuid.UUID) (<-chan Notification, func())

	Close() error
}
