// Package access decides whether a caller may act on a listing as its owner,
// as an admin, or through an agent assignment.
package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
)

// Checker resolves listing permissions
type Checker struct {
	assignments agent.AssignmentRepository
}

// NewChecker creates a Checker
func NewChecker(assignments agent.AssignmentRepository) *Checker {
	return &Checker{assignments: assignments}
}

// CanManage reports whether actor may perform perm on the property
func (c *Checker) CanManage(ctx context.Context, actor identity.Actor, p *listing.Property, perm agent.Permission) (bool, error) {
	if actor.IsAdmin() || p.IsOwnedBy(actor.ID) {
		return true, nil
	}
	if !actor.Is(identity.RoleAgent) {
		return false, nil
	}
	held, err := c.assignments.FindActiveByAgent(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	for i := range held {
		if held[i].Grants(p.ID, p.OwnerID, perm) {
			return true, nil
		}
	}
	return false, nil
}

// AgentScope returns the listings an agent's active assignments cover.
// An empty perm accepts any assignment.
func (c *Checker) AgentScope(ctx context.Context, agentID uuid.UUID, perm agent.Permission) (listing.Scope, error) {
	held, err := c.assignments.FindActiveByAgent(ctx, agentID)
	if err != nil {
		return listing.Scope{}, err
	}

	var scope listing.Scope
	for _, a := range held {
		if perm != "" && !a.Permissions.Has(perm) {
			continue
		}
		if a.PropertyID == nil {
			scope.OwnerIDs = append(scope.OwnerIDs, a.LandlordID)
		} else {
			scope.PropertyIDs = append(scope.PropertyIDs, *a.PropertyID)
		}
	}
	return scope, nil
}
