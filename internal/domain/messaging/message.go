package messaging

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

// MaxMessageLength bounds a single message body
const MaxMessageLength = 5000

// Message is one entry in a conversation
type Message struct {
	shared.BaseEntity
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Body           string    `gorm:"type:text;not null"`
	ReadAt         *time.Time
}

// TableName returns the table name for GORM
func (Message) TableName() string {
	return "messages"
}

func newMessage(conversationID, sender uuid.UUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Message body is required")
	}
	if len(body) > MaxMessageLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "Message body is too long")
	}
	return &Message{
		BaseEntity:     shared.NewBaseEntity(),
		ConversationID: conversationID,
		SenderID:       sender,
		Body:           body,
	}, nil
}

// IsRead reports whether the recipient has read the message
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}
