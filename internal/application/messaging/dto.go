package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/messaging"
)

// StartInput opens a conversation, optionally about a listing and with a first message
type StartInput struct {
	RecipientID uuid.UUID
	PropertyID  *uuid.UUID
	Message     string
}

// ConversationResult is a conversation as seen by one participant
type ConversationResult struct {
	ID            uuid.UUID      `json:"id"`
	PropertyID    *uuid.UUID     `json:"property_id,omitempty"`
	ParticipantID uuid.UUID      `json:"participant_id"`
	LastMessageAt time.Time      `json:"last_message_at"`
	UnreadCount   int64          `json:"unread_count"`
	CreatedAt     time.Time      `json:"created_at"`
	FirstMessage  *MessageResult `json:"first_message,omitempty"`
}

// MessageResult is one chat message
type MessageResult struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toConversationResult(c *messaging.Conversation, viewer uuid.UUID, unread int64) ConversationResult {
	return ConversationResult{
		ID:            c.ID,
		PropertyID:    c.PropertyID,
		ParticipantID: c.OtherParticipant(viewer),
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   unread,
		CreatedAt:     c.CreatedAt,
	}
}

func toMessageResult(m *messaging.Message) MessageResult {
	return MessageResult{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}
