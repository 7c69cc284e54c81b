package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(p).Error)
}

// Update saves an existing payment
func (r *GormPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// FindByProviderPaymentID finds a payment by the gateway's id
func (r *GormPaymentRepository) FindByProviderPaymentID(ctx context.Context, provider payment.Provider, providerPaymentID string) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_payment_id = ?", provider, providerPaymentID).
		First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// FindByIdempotencyKey finds the payer's payment created under key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, payerID uuid.UUID, key string) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).
		Where("payer_id = ? AND idempotency_key = ?", payerID, key).
		First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// FindAll finds one page of payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter payment.PaymentFilter) ([]payment.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&payment.Payment{})
	if filter.PartyID != nil {
		query = query.Where("payer_id = ? OR payee_id = ?", *filter.PartyID, *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var payments []payment.Payment
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// SucceededTotals returns the count and volume of succeeded payments
func (r *GormPaymentRepository) SucceededTotals(ctx context.Context) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&payment.Payment{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", payment.StatusSucceeded).
		Scan(&row).Error; err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, row.Total, nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)

// GormEscrowRepository implements EscrowRepository using GORM
type GormEscrowRepository struct {
	db *gorm.DB
}

// NewGormEscrowRepository creates a new GormEscrowRepository
func NewGormEscrowRepository(db *gorm.DB) *GormEscrowRepository {
	return &GormEscrowRepository{db: db}
}

// Create inserts a new escrow transaction
func (r *GormEscrowRepository) Create(ctx context.Context, e *payment.EscrowTransaction) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update saves an existing escrow transaction
func (r *GormEscrowRepository) Update(ctx context.Context, e *payment.EscrowTransaction) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// FindByID finds an escrow transaction by its ID
func (r *GormEscrowRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.EscrowTransaction, error) {
	var e payment.EscrowTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translateError(err)
	}
	return &e, nil
}

// FindAll finds one page of escrow transactions matching the filter
func (r *GormEscrowRepository) FindAll(ctx context.Context, filter payment.EscrowFilter) ([]payment.EscrowTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&payment.EscrowTransaction{})
	if filter.PartyID != nil {
		query = query.Where("payer_id = ? OR payee_id = ?", *filter.PartyID, *filter.PartyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var escrows []payment.EscrowTransaction
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&escrows).Error; err != nil {
		return nil, 0, err
	}
	return escrows, total, nil
}

// HeldTotal sums the amount in held or disputed escrows
func (r *GormEscrowRepository) HeldTotal(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&payment.EscrowTransaction{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("status IN ?", []payment.EscrowStatus{payment.EscrowStatusHeld, payment.EscrowStatusDisputed}).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// Ensure GormEscrowRepository implements EscrowRepository
var _ payment.EscrowRepository = (*GormEscrowRepository)(nil)
