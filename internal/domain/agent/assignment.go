package agent

import (
	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
)

// AssignmentStatus is the lifecycle of a delegation
type AssignmentStatus string

const (
	AssignmentStatusActive  AssignmentStatus = "active"
	AssignmentStatusRevoked AssignmentStatus = "revoked"
)

// Permissions are the rights a landlord delegates to an agent
type Permissions struct {
	CanEditListings       bool `gorm:"not null;default:false"`
	CanManageApplications bool `gorm:"not null;default:false"`
	CanMessageTenants     bool `gorm:"not null;default:false"`
}

// Permission names one delegated right
type Permission string

const (
	PermissionEditListings       Permission = "edit_listings"
	PermissionManageApplications Permission = "manage_applications"
	PermissionMessageTenants     Permission = "message_tenants"
)

// Has reports whether the permission is granted
func (p Permissions) Has(perm Permission) bool {
	switch perm {
	case PermissionEditListings:
		return p.CanEditListings
	case PermissionManageApplications:
		return p.CanManageApplications
	case PermissionMessageTenants:
		return p.CanMessageTenants
	default:
		return false
	}
}

// AgentAssignment delegates a landlord's properties to an agent.
// A nil PropertyID covers every property the landlord owns.
type AgentAssignment struct {
	shared.BaseEntity
	AgentID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	LandlordID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	PropertyID  *uuid.UUID `gorm:"type:uuid;index"`
	Permissions `gorm:"embedded"`
	Status      AssignmentStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (AgentAssignment) TableName() string {
	return "agent_assignments"
}

// NewAssignment creates an active assignment
func NewAssignment(agentID, landlordID uuid.UUID, propertyID *uuid.UUID, perms Permissions) (*AgentAssignment, error) {
	if agentID == uuid.Nil || landlordID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Agent and landlord are required")
	}
	return &AgentAssignment{
		BaseEntity:  shared.NewBaseEntity(),
		AgentID:     agentID,
		LandlordID:  landlordID,
		PropertyID:  propertyID,
		Permissions: perms,
		Status:      AssignmentStatusActive,
	}, nil
}

// IsActive reports whether the assignment grants anything
func (a *AgentAssignment) IsActive() bool {
	return a.Status == AssignmentStatusActive
}

// Covers reports whether the assignment applies to a property owned by ownerID
func (a *AgentAssignment) Covers(propertyID, ownerID uuid.UUID) bool {
	if !a.IsActive() || a.LandlordID != ownerID {
		return false
	}
	return a.PropertyID == nil || *a.PropertyID == propertyID
}

// Grants reports whether the assignment gives perm on the property
func (a *AgentAssignment) Grants(propertyID, ownerID uuid.UUID, perm Permission) bool {
	return a.Covers(propertyID, ownerID) && a.Permissions.Has(perm)
}

// UpdatePermissions replaces the delegated rights
func (a *AgentAssignment) UpdatePermissions(perms Permissions) error {
	if !a.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Assignment has been revoked")
	}
	a.Permissions = perms
	a.Touch()
	return nil
}

// Revoke ends the assignment
func (a *AgentAssignment) Revoke() error {
	if !a.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Assignment is already revoked")
	}
	a.Status = AssignmentStatusRevoked
	a.Touch()
	return nil
}
