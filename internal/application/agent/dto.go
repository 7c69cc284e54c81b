package agent

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/agent"
)

// AgentInput carries the editable fields of an agent profile
type AgentInput struct {
	LicenseNumber   string
	Agency          string
	Bio             string
	Specialties     []string
	YearsExperience int
}

func (in AgentInput) details() agent.AgentDetails {
	return agent.AgentDetails{
		LicenseNumber:   in.LicenseNumber,
		Agency:          in.Agency,
		Bio:             in.Bio,
		Specialties:     in.Specialties,
		YearsExperience: in.YearsExperience,
	}
}

// ListInput filters the public agent directory
type ListInput struct {
	VerifiedOnly bool
	Search       string
	Page         int
	PageSize     int
}

// AssignInput delegates a landlord's listings to an agent.
// AgentID may be the agent record id or the agent's profile id.
type AssignInput struct {
	AgentID     uuid.UUID
	PropertyID  *uuid.UUID
	Permissions agent.Permissions
}

// AgentResult is the public representation of an agent
type AgentResult struct {
	ID              uuid.UUID `json:"id"`
	ProfileID       uuid.UUID `json:"profile_id"`
	FullName        string    `json:"full_name,omitempty"`
	LicenseNumber   string    `json:"license_number"`
	Agency          string    `json:"agency"`
	Bio             string    `json:"bio"`
	Specialties     []string  `json:"specialties"`
	YearsExperience int       `json:"years_experience"`
	IsVerified      bool      `json:"is_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toAgentResult(a *agent.Agent, fullName string) AgentResult {
	specialties := a.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return AgentResult{
		ID:              a.ID,
		ProfileID:       a.ProfileID,
		FullName:        fullName,
		LicenseNumber:   a.LicenseNumber,
		Agency:          a.Agency,
		Bio:             a.Bio,
		Specialties:     specialties,
		YearsExperience: a.YearsExperience,
		IsVerified:      a.IsVerified,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AssignmentResult is the API representation of an assignment
type AssignmentResult struct {
	ID                    uuid.UUID              `json:"id"`
	AgentID               uuid.UUID              `json:"agent_id"`
	LandlordID            uuid.UUID              `json:"landlord_id"`
	PropertyID            *uuid.UUID             `json:"property_id,omitempty"`
	CanEditListings       bool                   `json:"can_edit_listings"`
	CanManageApplications bool                   `json:"can_manage_applications"`
	CanMessageTenants     bool                   `json:"can_message_tenants"`
	Status                agent.AssignmentStatus `json:"status"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

func toAssignmentResult(a *agent.AgentAssignment) AssignmentResult {
	return AssignmentResult{
		ID:                    a.ID,
		AgentID:               a.AgentID,
		LandlordID:            a.LandlordID,
		PropertyID:            a.PropertyID,
		CanEditListings:       a.CanEditListings,
		CanManageApplications: a.CanManageApplications,
		CanMessageTenants:     a.CanMessageTenants,
		Status:                a.Status,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}
