package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSearchAlertRepository implements SearchAlertRepository using GORM
type GormSearchAlertRepository struct {
	db *gorm.DB
}

// NewGormSearchAlertRepository creates a new GormSearchAlertRepository
func NewGormSearchAlertRepository(db *gorm.DB) *GormSearchAlertRepository {
	return &GormSearchAlertRepository{db: db}
}

// Create inserts a new alert
func (r *GormSearchAlertRepository) Create(ctx context.Context, a *alert.SearchAlert) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// Update saves an existing alert
func (r *GormSearchAlertRepository) Update(ctx context.Context, a *alert.SearchAlert) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// Delete deletes an alert
func (r *GormSearchAlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&alert.SearchAlert{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an alert by its ID
func (r *GormSearchAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*alert.SearchAlert, error) {
	var a alert.SearchAlert
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// FindByUser lists a user's alerts, newest first
func (r *GormSearchAlertRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]alert.SearchAlert, error) {
	var alerts []alert.SearchAlert
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// FindActiveByFrequency returns every active alert with the given frequency
func (r *GormSearchAlertRepository) FindActiveByFrequency(ctx context.Context, frequency alert.Frequency) ([]alert.SearchAlert, error) {
	var alerts []alert.SearchAlert
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND frequency = ?", true, frequency).
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// MarkNotified sets last_notified_at
func (r *GormSearchAlertRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&alert.SearchAlert{}).
		Where("id = ?", id).
		Update("last_notified_at", at.UTC()).Error
}

// CountActive returns the number of active alerts
func (r *GormSearchAlertRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&alert.SearchAlert{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// Ensure GormSearchAlertRepository implements SearchAlertRepository
var _ alert.SearchAlertRepository = (*GormSearchAlertRepository)(nil)
