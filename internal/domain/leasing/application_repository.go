package leasing

import (
	"context"

	"github.com/google/uuid"
)

// ApplicationRepository defines the interface for application persistence
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	Update(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id uuid.UUID) (*Application, error)

	// FindAll returns one page of applications matching the filter with the total count
	FindAll(ctx context.Context, filter ApplicationFilter) ([]Application, int64, error)

	// HasOpenApplication reports whether the applicant already has a pending or approved application for the property
	HasOpenApplication(ctx context.Context, propertyID, applicantID uuid.UUID) (bool, error)

	// CountByStatus returns the number of applications per status
	CountByStatus(ctx context.Context) (map[ApplicationStatus]int64, error)
}

// ApplicationFilter contains filter options for querying applications.
// ApplicantID and PropertyIDs/OwnerIDs are OR-ed visibility scopes; an all-nil
// scope means unrestricted.
type ApplicationFilter struct {
	Status      *ApplicationStatus
	PropertyID  *uuid.UUID
	ApplicantID *uuid.UUID
	// OwnerIDs matches applications to properties owned by any of these landlords
	OwnerIDs []uuid.UUID
	// PropertyIDs matches applications to any of these properties
	PropertyIDs []uuid.UUID
	// Restricted forces an empty result when no scope is set
	Restricted bool
	Page       int
	PageSize   int
}
