package listing

import (
	"context"

	"github.com/google/uuid"
)

// PropertyRepository defines the interface for property persistence
type PropertyRepository interface {
	Create(ctx context.Context, property *Property) error
	Update(ctx context.Context, property *Property) error

	// Delete removes a property; returns shared.ErrNotFound if absent
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)

	// FindByIDs returns the listings that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Property, error)

	// Search returns one page of listings matching the filter, plus the total match count
	Search(ctx context.Context, filter SearchFilter) ([]Property, int64, error)

	// OwnerIDsOf maps property id to owner id
	OwnerIDsOf(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)

	// CountByStatus returns the number of listings per status
	CountByStatus(ctx context.Context) (map[PropertyStatus]int64, error)
}

// Scope restricts a search to listings owned by any of OwnerIDs or whose id is in PropertyIDs
type Scope struct {
	OwnerIDs    []uuid.UUID
	PropertyIDs []uuid.UUID
}

// IsEmpty reports whether the scope matches nothing
func (s Scope) IsEmpty() bool {
	return len(s.OwnerIDs) == 0 && len(s.PropertyIDs) == 0
}

// SearchFilter is a property search request
type SearchFilter struct {
	Criteria
	MaxBedrooms *int
	Status      *PropertyStatus
	OwnerID     *uuid.UUID
	Scope       *Scope
	// Search is a keyword matched against title, description, address and city
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}
