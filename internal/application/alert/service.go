package alert

import (
	"context"
	"errors"

	"github.com/google/uuid"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var errAlertNotFound = shared.NewDomainError("NOT_FOUND", "Search alert not found")

// Service manages a user's saved search alerts
type Service struct {
	alerts     alert.SearchAlertRepository
	properties listing.PropertyRepository
	logger     *zap.Logger
}

// NewService creates a new alert service
func NewService(alerts alert.SearchAlertRepository, properties listing.PropertyRepository, logger *zap.Logger) *Service {
	return &Service{alerts: alerts, properties: properties, logger: logger}
}

// Create saves a new alert for the user
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input AlertInput) (*AlertResult, error) {
	a, err := alert.NewSearchAlert(userID, input.Name, input.Criteria, input.Frequency)
	if err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		a.SetActive(*input.IsActive)
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}
	result := ToAlertResult(a)
	return &result, nil
}

// List returns the user's alerts
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]AlertResult, error) {
	alerts, err := s.alerts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	results := make([]AlertResult, len(alerts))
	for i := range alerts {
		results[i] = ToAlertResult(&alerts[i])
	}
	return results, nil
}

// Get returns one of the user's alerts
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*AlertResult, error) {
	a, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	result := ToAlertResult(a)
	return &result, nil
}

// Update replaces an alert's name, criteria and frequency
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, input AlertInput) (*AlertResult, error) {
	a, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := a.Update(input.Name, input.Criteria, input.Frequency); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		a.SetActive(*input.IsActive)
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	result := ToAlertResult(a)
	return &result, nil
}

// Delete removes one of the user's alerts
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.alerts.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errAlertNotFound
		}
		return err
	}
	return nil
}

// Matches runs the alert's criteria against available listings
func (s *Service) Matches(ctx context.Context, userID, id uuid.UUID, page, pageSize int) (*shared.Paginated[listingapp.PropertyResult], error) {
	a, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	f := shared.NewPageRequest(page, pageSize)
	available := listing.PropertyStatusAvailable

	properties, total, err := s.properties.Search(ctx, listing.SearchFilter{
		Criteria: a.Criteria,
		Status:   &available,
		Page:     f.Page,
		PageSize: f.PageSize,
	})
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(listingapp.ToPropertyResults(properties), total, f.Page, f.PageSize)
	return &result, nil
}

// findOwned hides other users' alerts behind NOT_FOUND
func (s *Service) findOwned(ctx context.Context, userID, id uuid.UUID) (*alert.SearchAlert, error) {
	a, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errAlertNotFound
		}
		return nil, err
	}
	if !a.IsOwnedBy(userID) {
		return nil, errAlertNotFound
	}
	return a, nil
}
