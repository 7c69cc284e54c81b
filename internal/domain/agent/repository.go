package agent

import (
	"context"

	"github.com/google/uuid"
)

// AgentRepository defines the interface for agent profile persistence
type AgentRepository interface {
	Create(ctx context.Context, agent *Agent) error
	Update(ctx context.Context, agent *Agent) error
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	FindByProfileID(ctx context.Context, profileID uuid.UUID) (*Agent, error)
	ExistsByProfileID(ctx context.Context, profileID uuid.UUID) (bool, error)

	// FindAll returns one page of agents; Search matches agency or the profile's full name
	FindAll(ctx context.Context, filter AgentFilter) ([]Agent, int64, error)
}

// AgentFilter contains filter options for listing agents
type AgentFilter struct {
	VerifiedOnly bool
	Search       string
	Page         int
	PageSize     int
}

// AssignmentRepository defines the interface for assignment persistence
type AssignmentRepository interface {
	Create(ctx context.Context, a *AgentAssignment) error
	Update(ctx context.Context, a *AgentAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*AgentAssignment, error)

	// FindActiveByAgent returns the active assignments held by an agent
	FindActiveByAgent(ctx context.Context, agentID uuid.UUID) ([]AgentAssignment, error)

	// FindByParty returns every assignment where the profile is landlord or agent
	FindByParty(ctx context.Context, landlordID uuid.UUID, agentID *uuid.UUID) ([]AgentAssignment, error)

	// ExistsActive reports whether an identical active assignment exists
	ExistsActive(ctx context.Context, agentID, landlordID uuid.UUID, propertyID *uuid.UUID) (bool, error)
}
