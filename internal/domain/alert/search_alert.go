package alert

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
)

// Frequency controls how often an alert may notify its owner
type Frequency string

const (
	FrequencyInstant Frequency = "instant"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
)

// IsValid returns true if the frequency is known
func (f Frequency) IsValid() bool {
	return f == FrequencyInstant || f == FrequencyDaily || f == FrequencyWeekly
}

// SearchAlert is a saved search that notifies its owner of new matching listings
type SearchAlert struct {
	shared.BaseEntity
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Name             string    `gorm:"type:varchar(100);not null"`
	listing.Criteria `gorm:"embedded"`
	Frequency        Frequency `gorm:"type:varchar(20);not null;default:'instant'"`
	IsActive         bool      `gorm:"not null;default:true;index"`
	LastNotifiedAt   *time.Time
}

// TableName returns the table name for GORM
func (SearchAlert) TableName() string {
	return "search_alerts"
}

// NewSearchAlert creates an active alert
func NewSearchAlert(userID uuid.UUID, name string, criteria listing.Criteria, frequency Frequency) (*SearchAlert, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "User is required")
	}
	a := &SearchAlert{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		IsActive:   true,
	}
	if err := a.Update(name, criteria, frequency); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the name, criteria and frequency
func (a *SearchAlert) Update(name string, criteria listing.Criteria, frequency Frequency) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Alert name is required")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "Alert name cannot exceed 100 characters")
	}
	if frequency == "" {
		frequency = FrequencyInstant
	}
	if !frequency.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Frequency must be instant, daily or weekly")
	}
	if err := criteria.Validate(); err != nil {
		return err
	}
	a.Name = name
	a.Criteria = criteria
	a.Frequency = frequency
	a.Touch()
	return nil
}

// SetActive toggles notifications
func (a *SearchAlert) SetActive(active bool) {
	a.IsActive = active
	a.Touch()
}

// IsOwnedBy reports whether the alert belongs to userID
func (a *SearchAlert) IsOwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

// ShouldNotify reports whether a freshly listed property triggers this alert.
// Owners are never alerted about their own listings.
func (a *SearchAlert) ShouldNotify(p *listing.Property) bool {
	if !a.IsActive || p == nil || p.OwnerID == a.UserID {
		return false
	}
	return a.Criteria.Matches(p)
}

// MarkNotified stamps LastNotifiedAt
func (a *SearchAlert) MarkNotified(at time.Time) {
	at = at.UTC()
	a.LastNotifiedAt = &at
}

// SearchAlertRepository defines the interface for alert persistence
type SearchAlertRepository interface {
	Create(ctx context.Context, alert *SearchAlert) error
	Update(ctx context.Context, alert *SearchAlert) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*SearchAlert, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]SearchAlert, error)

	// FindActiveByFrequency returns every active alert with the given frequency
	FindActiveByFrequency(ctx context.Context, frequency Frequency) ([]SearchAlert, error)

	// MarkNotified sets last_notified_at for the alert
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error

	CountActive(ctx context.Context) (int64, error)
}
