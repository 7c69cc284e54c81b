package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var errConversationNotFound = shared.NewDomainError("NOT_FOUND", "Conversation not found")

// Service handles direct messaging between users
type Service struct {
	conversations messaging.ConversationRepository
	messages      messaging.MessageRepository
	profiles      identity.ProfileRepository
	properties    listing.PropertyRepository
	broker        messaging.Broker
	metrics       *telemetry.MarketplaceMetrics
	logger        *zap.Logger
}

// NewService creates a new messaging service. broker may be nil.
func NewService(
	conversations messaging.ConversationRepository,
	messages messaging.MessageRepository,
	profiles identity.ProfileRepository,
	properties listing.PropertyRepository,
	broker messaging.Broker,
	logger *zap.Logger,
) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		profiles:      profiles,
		properties:    properties,
		broker:        broker,
		logger:        logger,
	}
}

// SetMetrics attaches business metrics
func (s *Service) SetMetrics(m *telemetry.MarketplaceMetrics) {
	s.metrics = m
}

// Start returns the existing conversation with the recipient or creates one.
// created reports whether a new conversation was opened.
func (s *Service) Start(ctx context.Context, actor identity.Actor, input StartInput) (*ConversationResult, bool, error) {
	if input.RecipientID == uuid.Nil {
		return nil, false, shared.NewDomainError("INVALID_INPUT", "recipient_id is required")
	}
	if input.RecipientID == actor.ID {
		return nil, false, shared.NewDomainError("INVALID_INPUT", "Cannot start a conversation with yourself")
	}
	if _, err := s.profiles.FindByID(ctx, input.RecipientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, false, shared.NewDomainError("NOT_FOUND", "Recipient not found")
		}
		return nil, false, err
	}
	if input.PropertyID != nil {
		if _, err := s.properties.FindByID(ctx, *input.PropertyID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, false, listing.ErrPropertyNotFound
			}
			return nil, false, err
		}
	}

	conv, created, err := s.findOrCreate(ctx, actor.ID, input.RecipientID, input.PropertyID)
	if err != nil {
		return nil, false, err
	}

	res := toConversationResult(conv, actor.ID, 0)
	if input.Message != "" {
		msg, err := s.send(ctx, conv, actor.ID, input.Message)
		if err != nil {
			return nil, false, err
		}
		mr := toMessageResult(msg)
		res.FirstMessage = &mr
		res.LastMessageAt = conv.LastMessageAt
	}
	return &res, created, nil
}

func (s *Service) findOrCreate(ctx context.Context, from, to uuid.UUID, propertyID *uuid.UUID) (*messaging.Conversation, bool, error) {
	one, two := messaging.OrderParticipants(from, to)
	existing, err := s.conversations.FindByParticipants(ctx, one, two, propertyID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	conv, err := messaging.NewConversation(from, to, propertyID)
	if err != nil {
		return nil, false, err
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// the other side opened it concurrently
			existing, findErr := s.conversations.FindByParticipants(ctx, one, two, propertyID)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return conv, true, nil
}

// List returns the caller's conversations, most recent first
func (s *Service) List(ctx context.Context, actor identity.Actor) ([]ConversationResult, error) {
	summaries, err := s.conversations.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	results := make([]ConversationResult, len(summaries))
	for i := range summaries {
		results[i] = toConversationResult(&summaries[i].Conversation, actor.ID, summaries[i].UnreadCount)
	}
	return results, nil
}

// Messages returns one page of a conversation, oldest first
func (s *Service) Messages(ctx context.Context, actor identity.Actor, conversationID uuid.UUID, page, pageSize int) (*shared.Paginated[MessageResult], error) {
	if _, err := s.participantOf(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	f := shared.NewPageRequest(page, pageSize)

	msgs, total, err := s.messages.FindByConversation(ctx, conversationID, f.Page, f.PageSize)
	if err != nil {
		return nil, err
	}
	results := make([]MessageResult, len(msgs))
	for i := range msgs {
		results[i] = toMessageResult(&msgs[i])
	}
	paginated := shared.NewPaginated(results, total, f.Page, f.PageSize)
	return &paginated, nil
}

// Send posts a message and notifies the other participant in real time
func (s *Service) Send(ctx context.Context, actor identity.Actor, conversationID uuid.UUID, body string) (*MessageResult, error) {
	conv, err := s.participantOf(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	msg, err := s.send(ctx, conv, actor.ID, body)
	if err != nil {
		return nil, err
	}
	result := toMessageResult(msg)
	return &result, nil
}

func (s *Service) send(ctx context.Context, conv *messaging.Conversation, sender uuid.UUID, body string) (*messaging.Message, error) {
	msg, err := conv.NewMessage(sender, body)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, err
	}
	s.metrics.RecordMessageSent(ctx)

	if s.broker != nil {
		n := messaging.NewNotification(conv.OtherParticipant(sender), msg)
		if err := s.broker.Publish(ctx, n); err != nil {
			s.logger.Warn("Failed to publish message notification",
				zap.String("conversation_id", conv.ID.String()),
				zap.Error(err),
			)
		}
	}
	return msg, nil
}

// MarkRead marks the other participant's messages as read and returns how many changed
func (s *Service) MarkRead(ctx context.Context, actor identity.Actor, conversationID uuid.UUID) (int64, error) {
	if _, err := s.participantOf(ctx, actor, conversationID); err != nil {
		return 0, err
	}
	return s.messages.MarkRead(ctx, conversationID, actor.ID)
}

// Subscribe streams notifications addressed to the user until cancel is called
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan messaging.Notification, func(), error) {
	if s.broker == nil {
		return nil, nil, shared.ErrServiceUnavailable
	}
	ch, cancel := s.broker.Subscribe(userID)
	s.metrics.RealtimeConnected(ctx)
	return ch, func() {
		cancel()
		s.metrics.RealtimeDisconnected(context.WithoutCancel(ctx))
	}, nil
}

func (s *Service) participantOf(ctx context.Context, actor identity.Actor, conversationID uuid.UUID) (*messaging.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(actor.ID) {
		return nil, shared.NewDomainError("FORBIDDEN", "Not a participant of this conversation")
	}
	return conv, nil
}
