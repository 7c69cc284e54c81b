package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memAlerts struct {
	byID     map[uuid.UUID]*alert.SearchAlert
	notified map[uuid.UUID]time.Time
}

func newMemAlerts() *memAlerts {
	return &memAlerts{byID: map[uuid.UUID]*alert.SearchAlert{}, notified: map[uuid.UUID]time.Time{}}
}

func (m *memAlerts) Create(_ context.Context, a *alert.SearchAlert) error {
	m.byID[a.ID] = a
	return nil
}

func (m *memAlerts) Update(_ context.Context, a *alert.SearchAlert) error {
	m.byID[a.ID] = a
	return nil
}

func (m *memAlerts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAlerts) FindByID(_ context.Context, id uuid.UUID) (*alert.SearchAlert, error) {
	if a, ok := m.byID[id]; ok {
		return a, nil
	}
	return nil, shared.ErrNotFound
}

func (m *memAlerts) FindByUser(_ context.Context, userID uuid.UUID) ([]alert.SearchAlert, error) {
	var out []alert.SearchAlert
	for _, a := range m.byID {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAlerts) FindActiveByFrequency(_ context.Context, f alert.Frequency) ([]alert.SearchAlert, error) {
	var out []alert.SearchAlert
	for _, a := range m.byID {
		if a.IsActive && a.Frequency == f {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAlerts) MarkNotified(_ context.Context, id uuid.UUID, at time.Time) error {
	m.notified[id] = at
	return nil
}

func (m *memAlerts) CountActive(context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

type searchRecorder struct {
	listing.PropertyRepository
	filter listing.SearchFilter
}

func (s *searchRecorder) Search(_ context.Context, f listing.SearchFilter) ([]listing.Property, int64, error) {
	s.filter = f
	return []listing.Property{}, 0, nil
}

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	alerts := newMemAlerts()
	svc := NewService(alerts, &searchRecorder{}, zap.NewNop())
	user := uuid.New()

	created, err := svc.Create(ctx, user, AlertInput{Name: "Downtown 2BR", Criteria: listing.Criteria{City: "Seattle"}})
	require.NoError(t, err)
	assert.Equal(t, alert.FrequencyInstant, created.Frequency)
	assert.True(t, created.IsActive)

	_, err = svc.Create(ctx, user, AlertInput{Name: " "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	off := false
	updated, err := svc.Update(ctx, user, created.ID, AlertInput{Name: "Renamed", Frequency: alert.FrequencyWeekly, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, alert.FrequencyWeekly, updated.Frequency)
	assert.False(t, updated.IsActive)

	// another user's alert looks missing
	other := uuid.New()
	_, err = svc.Get(ctx, other, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other, created.ID), shared.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, user, created.ID))
	_, err = svc.Get(ctx, user, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_Matches(t *testing.T) {
	ctx := context.Background()
	alerts := newMemAlerts()
	search := &searchRecorder{}
	svc := NewService(alerts, search, zap.NewNop())
	user := uuid.New()
	created, err := svc.Create(ctx, user, AlertInput{Name: "Pets", Criteria: listing.Criteria{City: "Boise"}})
	require.NoError(t, err)

	_, err = svc.Matches(ctx, user, created.ID, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, "Boise", search.filter.City)
	require.NotNil(t, search.filter.Status)
	assert.Equal(t, listing.PropertyStatusAvailable, *search.filter.Status)
	assert.Equal(t, 2, search.filter.Page)
}

type memProfiles struct {
	identity.ProfileRepository
	byID map[uuid.UUID]identity.Profile
}

func (m *memProfiles) FindByIDs(_ context.Context, ids []uuid.UUID) ([]identity.Profile, error) {
	var out []identity.Profile
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	sent []alert.MatchNotice
	err  error
}

func (n *recordingNotifier) NotifyMatch(_ context.Context, notice alert.MatchNotice) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notice)
	return nil
}

func listedEvent(t *testing.T, owner uuid.UUID, city string, price int64) *listing.PropertyListedEvent {
	t.Helper()
	p, err := listing.NewProperty(owner, listing.PropertyDetails{
		Title:        "New build",
		PropertyType: listing.PropertyTypeHouse,
		Price:        decimal.NewFromInt(price),
		Bedrooms:     3,
		Address:      "9 Pine Ave",
		City:         city,
	})
	require.NoError(t, err)
	return listing.NewPropertyListedEvent(p)
}

func TestMatchHandler(t *testing.T) {
	ctx := context.Background()
	alerts := newMemAlerts()
	renter := identity.Profile{Email: "r@example.com", FullName: "Rita"}
	renter.ID = uuid.New()
	landlordID := uuid.New()
	profiles := &memProfiles{byID: map[uuid.UUID]identity.Profile{renter.ID: renter}}
	notifier := &recordingNotifier{}
	h := NewMatchHandler(alerts, profiles, notifier, zap.NewNop())
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	maxPrice := decimal.NewFromInt(2500)
	matching, err := alert.NewSearchAlert(renter.ID, "Reno houses", listing.Criteria{City: "reno", MaxPrice: &maxPrice}, "")
	require.NoError(t, err)
	daily, err := alert.NewSearchAlert(renter.ID, "Daily digest", listing.Criteria{City: "Reno"}, alert.FrequencyDaily)
	require.NoError(t, err)
	own, err := alert.NewSearchAlert(landlordID, "Own listing", listing.Criteria{}, "")
	require.NoError(t, err)
	for _, a := range []*alert.SearchAlert{matching, daily, own} {
		require.NoError(t, alerts.Create(ctx, a))
	}

	assert.Equal(t, []string{listing.EventTypePropertyListed}, h.EventTypes())

	require.NoError(t, h.Handle(ctx, listedEvent(t, landlordID, "Reno", 2000)))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "r@example.com", notifier.sent[0].RecipientEmail)
	assert.Equal(t, "Reno houses", notifier.sent[0].AlertName)
	assert.Equal(t, fixed, alerts.notified[matching.ID])
	assert.NotContains(t, alerts.notified, own.ID)
	assert.NotContains(t, alerts.notified, daily.ID)

	// over budget: nothing sent
	require.NoError(t, h.Handle(ctx, listedEvent(t, landlordID, "Reno", 3000)))
	assert.Len(t, notifier.sent, 1)

	notifier.err = errors.New("smtp down")
	assert.Error(t, h.Handle(ctx, listedEvent(t, landlordID, "Reno", 1000)))
}
