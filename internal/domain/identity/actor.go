package identity

import "github.com/google/uuid"

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the caller has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Is reports whether the caller has the role
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
