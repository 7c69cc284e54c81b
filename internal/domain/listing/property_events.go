package listing

import (
	"github.com/rentnest/backend/internal/domain/shared"
)

const (
	AggregateTypeProperty = "Property"

	// EventTypePropertyListed fires when a listing becomes available
	EventTypePropertyListed = "PropertyListed"
)

// PropertyListedEvent carries a snapshot of the listing at the time it went live
type PropertyListedEvent struct {
	shared.BaseDomainEvent
	Property Property `json:"property"`
}

// NewPropertyListedEvent creates a new PropertyListedEvent
func NewPropertyListedEvent(p *Property) *PropertyListedEvent {
	snapshot := *p
	snapshot.ClearDomainEvents()
	snapshot.Amenities = append([]string(nil), p.Amenities...)
	snapshot.Images = append([]PropertyImage(nil), p.Images...)
	return &PropertyListedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertyListed, AggregateTypeProperty, p.ID),
		Property:        snapshot,
	}
}
