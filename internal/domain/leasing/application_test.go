package leasing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPending(t *testing.T) *Application {
	t.Helper()
	income := decimal.NewFromInt(5200)
	a, err := NewApplication(uuid.New(), uuid.New(), " hi there ", nil, &income, 0)
	require.NoError(t, err)
	return a
}

func TestNewApplication(t *testing.T) {
	a := newPending(t)
	assert.Equal(t, ApplicationStatusPending, a.Status)
	assert.Equal(t, "hi there", a.Message)
	assert.Equal(t, 1, a.Occupants)
	assert.True(t, a.IsOpen())
	require.Len(t, a.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeApplicationSubmitted, a.GetDomainEvents()[0].EventType())

	_, err := NewApplication(uuid.Nil, uuid.New(), "", nil, nil, 1)
	assert.Error(t, err)
	neg := decimal.NewFromInt(-1)
	_, err = NewApplication(uuid.New(), uuid.New(), "", nil, &neg, 1)
	assert.Error(t, err)
}

func TestApplication_Review(t *testing.T) {
	reviewer := uuid.New()

	a := newPending(t)
	require.NoError(t, a.Review(reviewer, ApplicationStatusApproved, "welcome"))
	assert.Equal(t, ApplicationStatusApproved, a.Status)
	require.NotNil(t, a.ReviewedBy)
	assert.Equal(t, reviewer, *a.ReviewedBy)
	assert.NotNil(t, a.ReviewedAt)
	assert.True(t, a.IsOpen())

	err := a.Review(reviewer, ApplicationStatusRejected, "")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	b := newPending(t)
	assert.ErrorIs(t, b.Review(reviewer, ApplicationStatusWithdrawn, ""), shared.ErrInvalidInput)
}

func TestApplication_Withdraw(t *testing.T) {
	a := newPending(t)
	assert.ErrorIs(t, a.Withdraw(uuid.New()), shared.ErrForbidden)
	require.NoError(t, a.Withdraw(a.ApplicantID))
	assert.Equal(t, ApplicationStatusWithdrawn, a.Status)
	assert.False(t, a.IsOpen())
	assert.ErrorIs(t, a.Withdraw(a.ApplicantID), shared.ErrInvalidState)
}
