package favorite

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

// SavedProperty is a listing bookmarked by a user
type SavedProperty struct {
	shared.BaseEntity
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_user_property"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_user_property;index"`
}

// TableName returns the table name for GORM
func (SavedProperty) TableName() string {
	return "saved_properties"
}

// NewSavedProperty creates a bookmark
func NewSavedProperty(userID, propertyID uuid.UUID) (*SavedProperty, error) {
	if userID == uuid.Nil || propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "User and property are required")
	}
	return &SavedProperty{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		PropertyID: propertyID,
	}, nil
}

// SavedPropertyRepository defines the interface for bookmark persistence
type SavedPropertyRepository interface {
	// Create inserts a bookmark; returns shared.ErrAlreadyExists on a duplicate pair
	Create(ctx context.Context, saved *SavedProperty) error

	// FindByUser lists a user's bookmarks, newest first
	FindByUser(ctx context.Context, userID uuid.UUID) ([]SavedProperty, error)

	Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)

	// Delete removes the bookmark; returns shared.ErrNotFound if it was not saved
	Delete(ctx context.Context, userID, propertyID uuid.UUID) error
}
