package leasing

import (
	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

const (
	AggregateTypeApplication = "Application"

	EventTypeApplicationSubmitted = "ApplicationSubmitted"
	EventTypeApplicationReviewed  = "ApplicationReviewed"
)

// ApplicationSubmittedEvent is raised when a renter applies for a property
type ApplicationSubmittedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID `json:"application_id"`
	PropertyID    uuid.UUID `json:"property_id"`
	ApplicantID   uuid.UUID `json:"applicant_id"`
}

// NewApplicationSubmittedEvent creates a new ApplicationSubmittedEvent
func NewApplicationSubmittedEvent(a *Application) *ApplicationSubmittedEvent {
	return &ApplicationSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationSubmitted, AggregateTypeApplication, a.ID),
		ApplicationID:   a.ID,
		PropertyID:      a.PropertyID,
		ApplicantID:     a.ApplicantID,
	}
}

// ApplicationReviewedEvent is raised when an application is approved or rejected
type ApplicationReviewedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID         `json:"application_id"`
	PropertyID    uuid.UUID         `json:"property_id"`
	Status        ApplicationStatus `json:"status"`
}

// NewApplicationReviewedEvent creates a new ApplicationReviewedEvent
func NewApplicationReviewedEvent(a *Application) *ApplicationReviewedEvent {
	return &ApplicationReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationReviewed, AggregateTypeApplication, a.ID),
		ApplicationID:   a.ID,
		PropertyID:      a.PropertyID,
		Status:          a.Status,
	}
}
