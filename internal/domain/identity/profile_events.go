package identity

import (
	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

const (
	AggregateTypeProfile = "Profile"

	EventTypeProfileRegistered = "ProfileRegistered"
)

// ProfileRegisteredEvent is raised when a new account signs up
type ProfileRegisteredEvent struct {
	shared.BaseDomainEvent
	ProfileID uuid.UUID `json:"profile_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}

// NewProfileRegisteredEvent creates a new ProfileRegisteredEvent
func NewProfileRegisteredEvent(p *Profile) *ProfileRegisteredEvent {
	return &ProfileRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileRegistered, AggregateTypeProfile, p.ID),
		ProfileID:       p.ID,
		Email:           p.Email,
		Role:            p.Role,
	}
}
