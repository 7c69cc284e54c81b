package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	errAgentNotFound       = shared.NewDomainError("NOT_FOUND", "Agent not found")
	errAssignmentNotFound  = shared.NewDomainError("NOT_FOUND", "Assignment not found")
	errDuplicateAssignment = shared.NewDomainError("ALREADY_EXISTS", "An active assignment already exists")
)

// Service manages agent profiles and landlord-to-agent delegation
type Service struct {
	agents      agent.AgentRepository
	assignments agent.AssignmentRepository
	profiles    identity.ProfileRepository
	properties  listing.PropertyRepository
	logger      *zap.Logger
}

// NewService creates a new agent service
func NewService(
	agents agent.AgentRepository,
	assignments agent.AssignmentRepository,
	profiles identity.ProfileRepository,
	properties listing.PropertyRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		agents:      agents,
		assignments: assignments,
		profiles:    profiles,
		properties:  properties,
		logger:      logger,
	}
}

// Register creates the caller's agent profile
func (s *Service) Register(ctx context.Context, actor identity.Actor, input AgentInput) (*AgentResult, error) {
	if !actor.Is(identity.RoleAgent) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only users with the agent role can register an agent profile")
	}
	exists, err := s.agents.ExistsByProfileID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Agent profile already exists")
	}
	a, err := agent.NewAgent(actor.ID, input.details())
	if err != nil {
		return nil, err
	}
	if err := s.agents.Create(ctx, a); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Agent profile already exists")
		}
		return nil, err
	}
	s.logger.Info("Agent registered",
		zap.String("agent_id", a.ID.String()),
		zap.String("profile_id", actor.ID.String()),
	)
	return s.withName(ctx, a)
}

// List returns one page of the agent directory
func (s *Service) List(ctx context.Context, input ListInput) (*shared.Paginated[AgentResult], error) {
	f := shared.NewPageRequest(input.Page, input.PageSize)

	agents, total, err := s.agents.FindAll(ctx, agent.AgentFilter{
		VerifiedOnly: input.VerifiedOnly,
		Search:       input.Search,
		Page:         f.Page,
		PageSize:     f.PageSize,
	})
	if err != nil {
		return nil, err
	}

	names, err := s.names(ctx, agents)
	if err != nil {
		return nil, err
	}
	results := make([]AgentResult, len(agents))
	for i := range agents {
		results[i] = toAgentResult(&agents[i], names[agents[i].ProfileID])
	}
	page := shared.NewPaginated(results, total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns one agent
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AgentResult, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withName(ctx, a)
}

// Update edits an agent profile; allowed for the agent or an admin
func (s *Service) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input AgentInput) (*AgentResult, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ProfileID != actor.ID && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You can only edit your own agent profile")
	}
	if err := a.Update(input.details()); err != nil {
		return nil, err
	}
	if err := s.agents.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.withName(ctx, a)
}

// Verify sets the verified badge; admins only
func (s *Service) Verify(ctx context.Context, actor identity.Actor, id uuid.UUID, verified bool) (*AgentResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Verify(verified)
	if err := s.agents.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Agent verification changed",
		zap.String("agent_id", a.ID.String()),
		zap.Bool("verified", verified),
		zap.String("admin_id", actor.ID.String()),
	)
	return s.withName(ctx, a)
}

// Assign delegates the caller's listings to an agent
func (s *Service) Assign(ctx context.Context, actor identity.Actor, input AssignInput) (*AssignmentResult, error) {
	if !actor.Is(identity.RoleLandlord) {
		return nil, shared.NewDomainError("FORBIDDEN", "Only landlords can assign agents")
	}
	if input.AgentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "agent_id is required")
	}
	a, err := s.resolveAgent(ctx, input.AgentID)
	if err != nil {
		return nil, err
	}
	if input.PropertyID != nil {
		p, err := s.properties.FindByID(ctx, *input.PropertyID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, listing.ErrPropertyNotFound
			}
			return nil, err
		}
		if !p.IsOwnedBy(actor.ID) {
			return nil, shared.NewDomainError("FORBIDDEN", "You can only assign agents to your own properties")
		}
	}

	exists, err := s.assignments.ExistsActive(ctx, a.ProfileID, actor.ID, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicateAssignment
	}

	assignment, err := agent.NewAssignment(a.ProfileID, actor.ID, input.PropertyID, input.Permissions)
	if err != nil {
		return nil, err
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, errDuplicateAssignment
		}
		return nil, err
	}

	s.logger.Info("Agent assigned",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("agent_profile_id", a.ProfileID.String()),
		zap.String("landlord_id", actor.ID.String()),
	)
	result := toAssignmentResult(assignment)
	return &result, nil
}

// ListAssignments returns assignments where the caller is landlord or agent
func (s *Service) ListAssignments(ctx context.Context, actor identity.Actor) ([]AssignmentResult, error) {
	held, err := s.assignments.FindByParty(ctx, actor.ID, &actor.ID)
	if err != nil {
		return nil, err
	}
	results := make([]AssignmentResult, len(held))
	for i := range held {
		results[i] = toAssignmentResult(&held[i])
	}
	return results, nil
}

// UpdatePermissions replaces the rights of an assignment; landlord only
func (s *Service) UpdatePermissions(ctx context.Context, actor identity.Actor, id uuid.UUID, perms agent.Permissions) (*AssignmentResult, error) {
	a, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.LandlordID != actor.ID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the landlord can change this assignment")
	}
	if err := a.UpdatePermissions(perms); err != nil {
		return nil, err
	}
	if err := s.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	result := toAssignmentResult(a)
	return &result, nil
}

// Revoke ends an assignment; landlord or admin
func (s *Service) Revoke(ctx context.Context, actor identity.Actor, id uuid.UUID) (*AssignmentResult, error) {
	a, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.LandlordID != actor.ID && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the landlord can revoke this assignment")
	}
	if err := a.Revoke(); err != nil {
		return nil, err
	}
	if err := s.assignments.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Agent assignment revoked",
		zap.String("assignment_id", a.ID.String()),
		zap.String("by", actor.ID.String()),
	)
	result := toAssignmentResult(a)
	return &result, nil
}

// resolveAgent accepts either an agent record id or the agent's profile id
func (s *Service) resolveAgent(ctx context.Context, id uuid.UUID) (*agent.Agent, error) {
	a, err := s.agents.FindByID(ctx, id)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	a, err = s.agents.FindByProfileID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*agent.Agent, error) {
	a, err := s.agents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errAgentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) findAssignment(ctx context.Context, id uuid.UUID) (*agent.AgentAssignment, error) {
	a, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) withName(ctx context.Context, a *agent.Agent) (*AgentResult, error) {
	names, err := s.names(ctx, []agent.Agent{*a})
	if err != nil {
		return nil, err
	}
	result := toAgentResult(a, names[a.ProfileID])
	return &result, nil
}

func (s *Service) names(ctx context.Context, agents []agent.Agent) (map[uuid.UUID]string, error) {
	if len(agents) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	ids := make([]uuid.UUID, len(agents))
	for i := range agents {
		ids[i] = agents[i].ProfileID
	}
	profiles, err := s.profiles.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.FullName
	}
	return names, nil
}
