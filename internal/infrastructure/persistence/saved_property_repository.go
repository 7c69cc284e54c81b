package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/favorite"
	"github.com/rentnest/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSavedPropertyRepository implements SavedPropertyRepository using GORM
type GormSavedPropertyRepository struct {
	db *gorm.DB
}

// NewGormSavedPropertyRepository creates a new GormSavedPropertyRepository
func NewGormSavedPropertyRepository(db *gorm.DB) *GormSavedPropertyRepository {
	return &GormSavedPropertyRepository{db: db}
}

// Create inserts a bookmark
func (r *GormSavedPropertyRepository) Create(ctx context.Context, saved *favorite.SavedProperty) error {
	return translateError(r.db.WithContext(ctx).Create(saved).Error)
}

// FindByUser lists a user's bookmarks, newest first
func (r *GormSavedPropertyRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]favorite.SavedProperty, error) {
	var saved []favorite.SavedProperty
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&saved).Error; err != nil {
		return nil, err
	}
	return saved, nil
}

// Exists checks if the user has saved the property
func (r *GormSavedPropertyRepository) Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&favorite.SavedProperty{}).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a bookmark
func (r *GormSavedPropertyRepository) Delete(ctx context.Context, userID, propertyID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&favorite.SavedProperty{}, "user_id = ? AND property_id = ?", userID, propertyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormSavedPropertyRepository implements SavedPropertyRepository
var _ favorite.SavedPropertyRepository = (*GormSavedPropertyRepository)(nil)
