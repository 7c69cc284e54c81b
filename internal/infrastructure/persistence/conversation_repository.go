package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/messaging"
	"gorm.io/gorm"
)

// GormConversationRepository implements ConversationRepository using GORM
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// Create inserts a new conversation
func (r *GormConversationRepository) Create(ctx context.Context, conv *messaging.Conversation) error {
	return translateError(r.db.WithContext(ctx).Create(conv).Error)
}

// Update saves an existing conversation
func (r *GormConversationRepository) Update(ctx context.Context, conv *messaging.Conversation) error {
	return r.db.WithContext(ctx).Save(conv).Error
}

// FindByID finds a conversation by its ID
func (r *GormConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	var conv messaging.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, translateError(err)
	}
	return &conv, nil
}

// FindByParticipants finds the thread between an ordered pair about a property
func (r *GormConversationRepository) FindByParticipants(ctx context.Context, one, two uuid.UUID, propertyID *uuid.UUID) (*messaging.Conversation, error) {
	query := r.db.WithContext(ctx).
		Where("participant_one_id = ? AND participant_two_id = ?", one, two)
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	} else {
		query = query.Where("property_id IS NULL")
	}

	var conv messaging.Conversation
	if err := query.First(&conv).Error; err != nil {
		return nil, translateError(err)
	}
	return &conv, nil
}

// ListForUser lists the user's conversations with per-conversation unread counts
func (r *GormConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]messaging.ConversationSummary, error) {
	var summaries []messaging.ConversationSummary
	if err := r.db.WithContext(ctx).Model(&messaging.Conversation{}).
		Select(`conversations.*, (
			SELECT COUNT(*) FROM messages
			WHERE messages.conversation_id = conversations.id
			AND messages.sender_id <> ? AND messages.read_at IS NULL
		) AS unread_count`, userID).
		Where("participant_one_id = ? OR participant_two_id = ?", userID, userID).
		Order("last_message_at DESC").
		Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// Count returns the total number of conversations
func (r *GormConversationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&messaging.Conversation{}).Count(&count).Error
	return count, err
}

// Ensure GormConversationRepository implements ConversationRepository
var _ messaging.ConversationRepository = (*GormConversationRepository)(nil)

// GormMessageRepository implements MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create inserts a new message
func (r *GormMessageRepository) Create(ctx context.Context, msg *messaging.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// FindByConversation returns one page of messages, oldest first
func (r *GormMessageRepository) FindByConversation(ctx context.Context, conversationID uuid.UUID, page, pageSize int) ([]messaging.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&messaging.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(page, pageSize)
	var messages []messaging.Message
	if err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&messages).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkRead stamps read_at on every unread message sent by the other participant
func (r *GormMessageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&messaging.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", time.Now().UTC())
	return result.RowsAffected, result.Error
}

// Count returns the total number of messages
func (r *GormMessageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&messaging.Message{}).Count(&count).Error
	return count, err
}

// Ensure GormMessageRepository implements MessageRepository
var _ messaging.MessageRepository = (*GormMessageRepository)(nil)
