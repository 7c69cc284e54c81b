package listing

import "github.com/rentnest/backend/internal/domain/shared"

var (
	ErrPropertyNotFound     = shared.NewDomainError("NOT_FOUND", "Property not found")
	ErrPropertyNotAvailable = shared.NewDomainError("INVALID_STATE", "Property is not available")
)

func errInvalidCriteria(msg string) error {
	return shared.NewDomainError("INVALID_INPUT", msg)
}
