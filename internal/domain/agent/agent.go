package agent

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

// Agent is the professional profile of a user with the agent role
type Agent struct {
	shared.BaseEntity
	ProfileID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	LicenseNumber   string    `gorm:"type:varchar(100);not null"`
	Agency          string    `gorm:"type:varchar(200)"`
	Bio             string    `gorm:"type:text"`
	Specialties     []string  `gorm:"serializer:json;type:jsonb"`
	YearsExperience int       `gorm:"not null;default:0"`
	IsVerified      bool      `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Agent) TableName() string {
	return "agents"
}

// AgentDetails carries the editable attributes of an agent profile
type AgentDetails struct {
	LicenseNumber   string
	Agency          string
	Bio             string
	Specialties     []string
	YearsExperience int
}

// NewAgent creates an unverified agent profile
func NewAgent(profileID uuid.UUID, d AgentDetails) (*Agent, error) {
	if profileID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Profile is required")
	}
	a := &Agent{
		BaseEntity: shared.NewBaseEntity(),
		ProfileID:  profileID,
	}
	if err := a.Update(d); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the editable attributes
func (a *Agent) Update(d AgentDetails) error {
	license := strings.TrimSpace(d.LicenseNumber)
	if license == "" {
		return shared.NewDomainError("INVALID_INPUT", "License number is required")
	}
	if len(license) > 100 {
		return shared.NewDomainError("INVALID_INPUT", "License number cannot exceed 100 characters")
	}
	if d.YearsExperience < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Years of experience cannot be negative")
	}
	specialties := make([]string, 0, len(d.Specialties))
	for _, s := range d.Specialties {
		if s = strings.TrimSpace(s); s != "" {
			specialties = append(specialties, s)
		}
	}
	a.LicenseNumber = license
	a.Agency = strings.TrimSpace(d.Agency)
	a.Bio = d.Bio
	a.Specialties = specialties
	a.YearsExperience = d.YearsExperience
	a.Touch()
	return nil
}

// Verify marks the agent as vetted by an admin
func (a *Agent) Verify(verified bool) {
	a.IsVerified = verified
	a.Touch()
}
