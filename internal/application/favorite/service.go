package favorite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/domain/favorite"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SavedPropertyResult is a bookmark with its listing embedded
type SavedPropertyResult struct {
	ID         uuid.UUID                  `json:"id"`
	PropertyID uuid.UUID                  `json:"property_id"`
	SavedAt    time.Time                  `json:"saved_at"`
	Property   *listingapp.PropertyResult `json:"property,omitempty"`
}

// Service manages a user's saved listings
type Service struct {
	saved      favorite.SavedPropertyRepository
	properties listing.PropertyRepository
	logger     *zap.Logger
}

// NewService creates a new favorite service
func NewService(saved favorite.SavedPropertyRepository, properties listing.PropertyRepository, logger *zap.Logger) *Service {
	return &Service{saved: saved, properties: properties, logger: logger}
}

// Save bookmarks a listing for the user
func (s *Service) Save(ctx context.Context, userID, propertyID uuid.UUID) (*SavedPropertyResult, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "property_id is required")
	}
	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrPropertyNotFound
		}
		return nil, err
	}

	saved, err := favorite.NewSavedProperty(userID, propertyID)
	if err != nil {
		return nil, err
	}
	if err := s.saved.Create(ctx, saved); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Property is already saved")
		}
		return nil, err
	}

	result := listingapp.ToPropertyResult(p)
	return &SavedPropertyResult{
		ID:         saved.ID,
		PropertyID: propertyID,
		SavedAt:    saved.CreatedAt,
		Property:   &result,
	}, nil
}

// List returns the user's bookmarks, newest first. Bookmarks whose listing
// has since been deleted are returned without a property.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]SavedPropertyResult, error) {
	saved, err := s.saved.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return []SavedPropertyResult{}, nil
	}

	ids := make([]uuid.UUID, len(saved))
	for i, sp := range saved {
		ids[i] = sp.PropertyID
	}
	properties, err := s.properties.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*listing.Property, len(properties))
	for i := range properties {
		byID[properties[i].ID] = &properties[i]
	}

	results := make([]SavedPropertyResult, len(saved))
	for i, sp := range saved {
		results[i] = SavedPropertyResult{ID: sp.ID, PropertyID: sp.PropertyID, SavedAt: sp.CreatedAt}
		if p, ok := byID[sp.PropertyID]; ok {
			r := listingapp.ToPropertyResult(p)
			results[i].Property = &r
		}
	}
	return results, nil
}

// Remove deletes a bookmark
func (s *Service) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	if err := s.saved.Delete(ctx, userID, propertyID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Property is not saved")
		}
		return err
	}
	return nil
}
