package messaging

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

// Conversation is a two-party thread, optionally about a property.
// Participants are stored in byte order so each pair maps to one row.
type Conversation struct {
	shared.BaseEntity
	PropertyID       *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_conversation_pair"`
	ParticipantOneID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair;index"`
	ParticipantTwoID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair;index"`
	LastMessageAt    time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// OrderParticipants returns a and b in storage order
func OrderParticipants(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// NewConversation creates a thread between two distinct users
func NewConversation(from, to uuid.UUID, propertyID *uuid.UUID) (*Conversation, error) {
	if from == uuid.Nil || to == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Both participants are required")
	}
	if from == to {
		return nil, shared.NewDomainError("INVALID_INPUT", "Cannot start a conversation with yourself")
	}
	one, two := OrderParticipants(from, to)
	base := shared.NewBaseEntity()
	return &Conversation{
		BaseEntity:       base,
		PropertyID:       propertyID,
		ParticipantOneID: one,
		ParticipantTwoID: two,
		LastMessageAt:    base.CreatedAt,
	}, nil
}

// HasParticipant reports whether the user is part of the conversation
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantOneID == userID || c.ParticipantTwoID == userID
}

// OtherParticipant returns the counterpart of userID
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.ParticipantOneID == userID {
		return c.ParticipantTwoID
	}
	return c.ParticipantOneID
}

// NewMessage appends a message from sender and bumps LastMessageAt
func (c *Conversation) NewMessage(sender uuid.UUID, body string) (*Message, error) {
	if !c.HasParticipant(sender) {
		return nil, shared.NewDomainError("FORBIDDEN", "Not a participant of this conversation")
	}
	m, err := newMessage(c.ID, sender, body)
	if err != nil {
		return nil, err
	}
	c.LastMessageAt = m.CreatedAt
	c.Touch()
	return m, nil
}
