package messaging

import (
	"context"

	"github.com/google/uuid"
)

// ConversationSummary is a conversation with the viewer's unread count
type ConversationSummary struct {
	Conversation
	UnreadCount int64
}

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	// Create inserts a conversation; returns shared.ErrAlreadyExists if the pair already talks about the property
	Create(ctx context.Context, conv *Conversation) error
	Update(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// FindByParticipants looks up the thread for an ordered pair and optional property
	FindByParticipants(ctx context.Context, one, two uuid.UUID, propertyID *uuid.UUID) (*Conversation, error)

	// ListForUser returns the user's conversations, most recent activity first
	ListForUser(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error)

	Count(ctx context.Context) (int64, error)
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error

	// FindByConversation returns one page of messages, oldest first, and the total
	FindByConversation(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]Message, int64, error)

	// MarkRead stamps every unread message not sent by readerID; returns rows affected
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)

	Count(ctx context.Context) (int64, error)
}
