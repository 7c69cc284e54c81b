package identity

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines the interface for profile persistence
type ProfileRepository interface {
	// Create inserts a new profile
	Create(ctx context.Context, profile *Profile) error

	// Update saves an existing profile
	Update(ctx context.Context, profile *Profile) error

	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// FindByEmail finds a profile by its (lower-cased) email
	FindByEmail(ctx context.Context, email string) (*Profile, error)

	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Profile, error)

	// FindAll returns profiles matching the filter with the total count
	FindAll(ctx context.Context, filter ProfileFilter) ([]Profile, int64, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// CountByRole returns the number of profiles per role
	CountByRole(ctx context.Context) (map[Role]int64, error)
}

// ProfileFilter contains filter options for querying profiles
type ProfileFilter struct {
	// Search keyword over email and full name
	Keyword  string
	Role     *Role
	Page     int
	PageSize int
}
