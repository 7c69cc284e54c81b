package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/leasing"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProfiles struct {
	identity.ProfileRepository
	err error
}

func (s stubProfiles) CountByRole(context.Context) (map[identity.Role]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return map[identity.Role]int64{identity.RoleRenter: 12, identity.RoleLandlord: 4, identity.RoleAdmin: 1}, nil
}

type stubProperties struct{ listing.PropertyRepository }

func (stubProperties) CountByStatus(context.Context) (map[listing.PropertyStatus]int64, error) {
	return map[listing.PropertyStatus]int64{listing.PropertyStatusAvailable: 7, listing.PropertyStatusRented: 2}, nil
}

type stubApplications struct{ leasing.ApplicationRepository }

func (stubApplications) CountByStatus(context.Context) (map[leasing.ApplicationStatus]int64, error) {
	return map[leasing.ApplicationStatus]int64{leasing.ApplicationStatusPending: 3}, nil
}

type stubPayments struct{ payment.PaymentRepository }

func (stubPayments) SucceededTotals(context.Context) (int64, decimal.Decimal, error) {
	return 5, decimal.RequireFromString("10250.50"), nil
}

type stubEscrows struct{ payment.EscrowRepository }

func (stubEscrows) HeldTotal(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(3600), nil
}

type stubAlerts struct{ alert.SearchAlertRepository }

func (stubAlerts) CountActive(context.Context) (int64, error) { return 6, nil }

type stubConversations struct {
	messaging.ConversationRepository
}

func (stubConversations) Count(context.Context) (int64, error) { return 9, nil }

type stubMessages struct{ messaging.MessageRepository }

func (stubMessages) Count(context.Context) (int64, error) { return 41, nil }

func newStatsService(profiles identity.ProfileRepository) *StatsService {
	return NewStatsService(profiles, stubProperties{}, stubApplications{}, stubPayments{}, stubEscrows{},
		stubAlerts{}, stubConversations{}, stubMessages{}, zap.NewNop())
}

func TestStatsService_Stats(t *testing.T) {
	svc := newStatsService(stubProfiles{})

	res, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 17, res.Users.Total)
	assert.EqualValues(t, 12, res.Users.By["renter"])
	assert.EqualValues(t, 9, res.Properties.Total)
	assert.EqualValues(t, 2, res.Properties.By["rented"])
	assert.EqualValues(t, 3, res.Applications.Total)
	assert.EqualValues(t, 5, res.Payments.Succeeded)
	assert.Equal(t, "10250.5", res.Payments.Volume.String())
	assert.True(t, res.EscrowHeld.Equal(decimal.NewFromInt(3600)))
	assert.EqualValues(t, 6, res.ActiveAlerts)
	assert.EqualValues(t, 9, res.Conversations)
	assert.EqualValues(t, 41, res.Messages)
}

func TestStatsService_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newStatsService(stubProfiles{err: boom})

	_, err := svc.PlatformStats(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}
