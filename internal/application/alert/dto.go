package alert

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/listing"
)

// AlertInput creates or replaces a saved search
type AlertInput struct {
	Name      string
	Criteria  listing.Criteria
	Frequency alert.Frequency
	IsActive  *bool
}

// AlertResult is the API representation of a saved search
type AlertResult struct {
	ID uuid.UUID `json:"id"`
	listing.Criteria
	Name           string          `json:"name"`
	Frequency      alert.Frequency `json:"frequency"`
	IsActive       bool            `json:"is_active"`
	LastNotifiedAt *time.Time      `json:"last_notified_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToAlertResult converts an alert to its result form
func ToAlertResult(a *alert.SearchAlert) AlertResult {
	return AlertResult{
		ID:             a.ID,
		Criteria:       a.Criteria,
		Name:           a.Name,
		Frequency:      a.Frequency,
		IsActive:       a.IsActive,
		LastNotifiedAt: a.LastNotifiedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
