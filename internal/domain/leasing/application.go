package leasing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApplicationStatus is the review state of a rental application
type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

// IsValid returns true if the status is known
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	default:
		return false
	}
}

// IsFinal reports whether no further transition is possible
func (s ApplicationStatus) IsFinal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusWithdrawn
}

// AllApplicationStatuses lists every status, in display order
func AllApplicationStatuses() []ApplicationStatus {
	return []ApplicationStatus{ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusWithdrawn}
}

// Application is a renter's request to lease a property
type Application struct {
	shared.BaseAggregateRoot
	PropertyID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ApplicantID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status        ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Message       string            `gorm:"type:text"`
	MoveInDate    *time.Time
	MonthlyIncome *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Occupants     int              `gorm:"not null;default:1"`
	ReviewedBy    *uuid.UUID       `gorm:"type:uuid"`
	ReviewedAt    *time.Time
	ReviewNote    string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Application) TableName() string {
	return "applications"
}

// NewApplication creates a pending application
func NewApplication(propertyID, applicantID uuid.UUID, message string, moveIn *time.Time, income *decimal.Decimal, occupants int) (*Application, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Property is required")
	}
	if applicantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Applicant is required")
	}
	if income != nil && income.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Monthly income cannot be negative")
	}
	if occupants < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Occupants cannot be negative")
	}
	if occupants == 0 {
		occupants = 1
	}

	a := &Application{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PropertyID:        propertyID,
		ApplicantID:       applicantID,
		Status:            ApplicationStatusPending,
		Message:           strings.TrimSpace(message),
		MoveInDate:        moveIn,
		MonthlyIncome:     income,
		Occupants:         occupants,
	}
	a.AddDomainEvent(NewApplicationSubmittedEvent(a))
	return a, nil
}

// Review approves or rejects a pending application
func (a *Application) Review(reviewer uuid.UUID, decision ApplicationStatus, note string) error {
	if decision != ApplicationStatusApproved && decision != ApplicationStatusRejected {
		return shared.NewDomainError("INVALID_INPUT", "Decision must be approved or rejected")
	}
	if a.Status != ApplicationStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending applications can be reviewed")
	}
	now := time.Now().UTC()
	a.Status = decision
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &now
	a.ReviewNote = strings.TrimSpace(note)
	a.Touch()
	a.AddDomainEvent(NewApplicationReviewedEvent(a))
	return nil
}

// Withdraw cancels a pending application on the applicant's behalf
func (a *Application) Withdraw(by uuid.UUID) error {
	if a.ApplicantID != by {
		return shared.NewDomainError("FORBIDDEN", "Only the applicant can withdraw an application")
	}
	if a.Status != ApplicationStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending applications can be withdrawn")
	}
	a.Status = ApplicationStatusWithdrawn
	a.Touch()
	return nil
}

// IsOpen reports whether the application still blocks another from the same applicant
func (a *Application) IsOpen() bool {
	return !a.Status.IsFinal()
}
