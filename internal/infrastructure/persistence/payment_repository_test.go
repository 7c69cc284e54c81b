package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(t *testing.T, payer, payee uuid.UUID, amount int64, key string) *payment.Payment {
	p, err := payment.NewPayment(payment.NewPaymentInput{
		PayerID:        payer,
		PayeeID:        payee,
		PropertyID:     uuid.New(),
		Amount:         decimal.NewFromInt(amount),
		PaymentType:    payment.PaymentTypeRent,
		Provider:       payment.ProviderStripe,
		IdempotencyKey: key,
	})
	require.NoError(t, err)
	return p
}

func TestGormPaymentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()

	payer, payee := uuid.New(), uuid.New()
	first := newTestPayment(t, payer, payee, 1500, "key-1")
	first.AttachIntent(&payment.CreateIntentResponse{ProviderPaymentID: "pi_1", ClientSecret: "secret"})
	require.NoError(t, repo.Create(ctx, first))
	second := newTestPayment(t, payer, payee, 500, "")
	require.NoError(t, repo.Create(ctx, second))

	t.Run("idempotency key is unique per payer", func(t *testing.T) {
		dup := newTestPayment(t, payer, payee, 1500, "key-1")
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)

		found, err := repo.FindByIdempotencyKey(ctx, payer, "key-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		_, err = repo.FindByIdempotencyKey(ctx, uuid.New(), "key-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("provider lookup", func(t *testing.T) {
		found, err := repo.FindByProviderPaymentID(ctx, payment.ProviderStripe, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
	})

	t.Run("party filter", func(t *testing.T) {
		_, total, err := repo.FindAll(ctx, payment.PaymentFilter{PartyID: &payee})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		stranger := uuid.New()
		_, total, err = repo.FindAll(ctx, payment.PaymentFilter{PartyID: &stranger})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("succeeded totals", func(t *testing.T) {
		paidAt := time.Now().UTC()
		require.True(t, first.ApplyGatewayStatus(payment.GatewayStatusSucceeded, &paidAt))
		require.NoError(t, repo.Update(ctx, first))

		count, volume, err := repo.SucceededTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.True(t, decimal.NewFromInt(1500).Equal(volume), volume.String())

		status := payment.StatusSucceeded
		found, _, err := repo.FindAll(ctx, payment.PaymentFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.NotNil(t, found[0].PaidAt)
	})
}

func TestGormEscrowRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormEscrowRepository(db)
	ctx := context.Background()

	payer, payee := uuid.New(), uuid.New()
	newEscrow := func(amount int64) *payment.EscrowTransaction {
		e, err := payment.NewEscrow(payment.NewEscrowInput{
			PropertyID: uuid.New(),
			PayerID:    payer,
			PayeeID:    payee,
			Amount:     decimal.NewFromInt(amount),
		})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, e))
		return e
	}

	held := newEscrow(1000)
	disputed := newEscrow(300)
	released := newEscrow(50)

	require.NoError(t, disputed.Apply(payment.EscrowActionDispute, payment.Actor{ID: payee}, "keys not handed over"))
	require.NoError(t, repo.Update(ctx, disputed))
	require.NoError(t, released.Apply(payment.EscrowActionRelease, payment.Actor{ID: payer}, ""))
	require.NoError(t, repo.Update(ctx, released))

	total, err := repo.HeldTotal(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1300).Equal(total), total.String())

	status := payment.EscrowStatusHeld
	found, count, err := repo.FindAll(ctx, payment.EscrowFilter{PartyID: &payer, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, held.ID, found[0].ID)

	loaded, err := repo.FindByID(ctx, disputed.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.EscrowStatusDisputed, loaded.Status)
	assert.Equal(t, "keys not handed over", loaded.DisputeReason)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
