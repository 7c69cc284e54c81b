package messaging

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memConversations struct {
	byID map[uuid.UUID]*messaging.Conversation
}

func (m *memConversations) Create(_ context.Context, c *messaging.Conversation) error {
	m.byID[c.ID] = c
	return nil
}

func (m *memConversations) Update(_ context.Context, c *messaging.Conversation) error {
	m.byID[c.ID] = c
	return nil
}

func (m *memConversations) FindByID(_ context.Context, id uuid.UUID) (*messaging.Conversation, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memConversations) FindByParticipants(_ context.Context, one, two uuid.UUID, propertyID *uuid.UUID) (*messaging.Conversation, error) {
	for _, c := range m.byID {
		if c.ParticipantOneID != one || c.ParticipantTwoID != two {
			continue
		}
		if (c.PropertyID == nil) != (propertyID == nil) {
			continue
		}
		if c.PropertyID != nil && *c.PropertyID != *propertyID {
			continue
		}
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memConversations) ListForUser(_ context.Context, userID uuid.UUID) ([]messaging.ConversationSummary, error) {
	var out []messaging.ConversationSummary
	for _, c := range m.byID {
		if c.HasParticipant(userID) {
			out = append(out, messaging.ConversationSummary{Conversation: *c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (m *memConversations) Count(context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

type memMessages struct {
	rows []messaging.Message
}

func (m *memMessages) Create(_ context.Context, msg *messaging.Message) error {
	m.rows = append(m.rows, *msg)
	return nil
}

func (m *memMessages) FindByConversation(_ context.Context, conversationID uuid.UUID, _, _ int) ([]messaging.Message, int64, error) {
	var out []messaging.Message
	for _, r := range m.rows {
		if r.ConversationID == conversationID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memMessages) MarkRead(_ context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var n int64
	for i := range m.rows {
		r := &m.rows[i]
		if r.ConversationID == conversationID && r.SenderID != readerID && r.ReadAt == nil {
			now := r.CreatedAt
			r.ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memMessages) Count(context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

type memProfiles struct {
	identity.ProfileRepository
	known map[uuid.UUID]bool
}

func (m *memProfiles) FindByID(_ context.Context, id uuid.UUID) (*identity.Profile, error) {
	if m.known[id] {
		return &identity.Profile{}, nil
	}
	return nil, shared.ErrNotFound
}

type memProperties struct {
	listing.PropertyRepository
}

func (memProperties) FindByID(context.Context, uuid.UUID) (*listing.Property, error) {
	return nil, shared.ErrNotFound
}

type recordingBroker struct {
	published []messaging.Notification
	subs      int
}

func (b *recordingBroker) Publish(_ context.Context, n messaging.Notification) error {
	b.published = append(b.published, n)
	return nil
}

func (b *recordingBroker) Subscribe(uuid.UUID) (<-chan messaging.Notification, func()) {
	b.subs++
	ch := make(chan messaging.Notification)
	return ch, func() { b.subs--; close(ch) }
}

func (b *recordingBroker) Close() error { return nil }

type fixture struct {
	convs  *memConversations
	msgs   *memMessages
	broker *recordingBroker
	svc    *Service
	alice  identity.Actor
	bob    identity.Actor
}

func newFixture() *fixture {
	f := &fixture{
		convs:  &memConversations{byID: map[uuid.UUID]*messaging.Conversation{}},
		msgs:   &memMessages{},
		broker: &recordingBroker{},
		alice:  identity.Actor{ID: uuid.New(), Role: identity.RoleRenter},
		bob:    identity.Actor{ID: uuid.New(), Role: identity.RoleLandlord},
	}
	profiles := &memProfiles{known: map[uuid.UUID]bool{f.alice.ID: true, f.bob.ID: true}}
	f.svc = NewService(f.convs, f.msgs, profiles, memProperties{}, f.broker, zap.NewNop())
	return f
}

func TestService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then reuses", func(t *testing.T) {
		f := newFixture()
		conv, created, err := f.svc.Start(ctx, f.alice, StartInput{RecipientID: f.bob.ID, Message: "Hi there"})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, f.bob.ID, conv.ParticipantID)
		require.NotNil(t, conv.FirstMessage)
		require.Len(t, f.broker.published, 1)
		assert.Equal(t, f.bob.ID, f.broker.published[0].RecipientID)

		again, created, err := f.svc.Start(ctx, f.bob, StartInput{RecipientID: f.alice.ID})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, conv.ID, again.ID)
		assert.Equal(t, f.alice.ID, again.ParticipantID)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.svc.Start(ctx, f.alice, StartInput{RecipientID: f.alice.ID})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, _, err = f.svc.Start(ctx, f.alice, StartInput{RecipientID: uuid.New()})
		assert.ErrorIs(t, err, shared.ErrNotFound)

		missing := uuid.New()
		_, _, err = f.svc.Start(ctx, f.alice, StartInput{RecipientID: f.bob.ID, PropertyID: &missing})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_SendReadAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	conv, _, err := f.svc.Start(ctx, f.alice, StartInput{RecipientID: f.bob.ID})
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, f.alice, conv.ID, "Is parking included?")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, f.alice, conv.ID, "   ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	stranger := identity.Actor{ID: uuid.New(), Role: identity.RoleRenter}
	_, err = f.svc.Send(ctx, stranger, conv.ID, "hello")
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = f.svc.Messages(ctx, stranger, conv.ID, 1, 20)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	_, err = f.svc.Messages(ctx, f.alice, uuid.New(), 1, 20)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	page, err := f.svc.Messages(ctx, f.bob, conv.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 20, page.PageSize)

	// the sender's own messages are not affected
	n, err := f.svc.MarkRead(ctx, f.alice, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.svc.MarkRead(ctx, f.bob, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := f.svc.List(ctx, f.bob)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.alice.ID, list[0].ParticipantID)
}

func TestService_Subscribe(t *testing.T) {
	f := newFixture()
	_, cancel, err := f.svc.Subscribe(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.broker.subs)
	cancel()
	assert.Zero(t, f.broker.subs)

	noBroker := NewService(f.convs, f.msgs, &memProfiles{}, memProperties{}, nil, zap.NewNop())
	_, _, err = noBroker.Subscribe(context.Background(), f.alice.ID)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
}
