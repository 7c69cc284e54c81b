package leasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/leasing"
	"github.com/shopspring/decimal"
)

// SubmitInput is a renter's application for a listing
type SubmitInput struct {
	PropertyID    uuid.UUID
	Message       string
	MoveInDate    *time.Time
	MonthlyIncome *decimal.Decimal
	Occupants     int
}

// ListInput filters the caller's applications
type ListInput struct {
	Status     *leasing.ApplicationStatus
	PropertyID *uuid.UUID
	Page       int
	PageSize   int
}

// ReviewInput approves or rejects an application
type ReviewInput struct {
	Status leasing.ApplicationStatus
	Note   string
}

// ApplicationResult is the API representation of an application
type ApplicationResult struct {
	ID            uuid.UUID                 `json:"id"`
	PropertyID    uuid.UUID                 `json:"property_id"`
	ApplicantID   uuid.UUID                 `json:"applicant_id"`
	Status        leasing.ApplicationStatus `json:"status"`
	Message       string                    `json:"message"`
	MoveInDate    *time.Time                `json:"move_in_date,omitempty"`
	MonthlyIncome *decimal.Decimal          `json:"monthly_income,omitempty"`
	Occupants     int                       `json:"occupants"`
	ReviewedBy    *uuid.UUID                `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time                `json:"reviewed_at,omitempty"`
	ReviewNote    string                    `json:"review_note,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// ToApplicationResult converts an application to its result form
func ToApplicationResult(a *leasing.Application) ApplicationResult {
	return ApplicationResult{
		ID:            a.ID,
		PropertyID:    a.PropertyID,
		ApplicantID:   a.ApplicantID,
		Status:        a.Status,
		Message:       a.Message,
		MoveInDate:    a.MoveInDate,
		MonthlyIncome: a.MonthlyIncome,
		Occupants:     a.Occupants,
		ReviewedBy:    a.ReviewedBy,
		ReviewedAt:    a.ReviewedAt,
		ReviewNote:    a.ReviewNote,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
