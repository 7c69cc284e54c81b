package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/agent"
	"gorm.io/gorm"
)

// GormAgentRepository implements AgentRepository using GORM
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GormAgentRepository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Create inserts a new agent profile
func (r *GormAgentRepository) Create(ctx context.Context, a *agent.Agent) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

// Update saves an existing agent profile
func (r *GormAgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	return translateError(r.db.WithContext(ctx).Save(a).Error)
}

// FindByID finds an agent by its ID
func (r *GormAgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*agent.Agent, error) {
	var a agent.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// FindByProfileID finds the agent profile attached to a user profile
func (r *GormAgentRepository) FindByProfileID(ctx context.Context, profileID uuid.UUID) (*agent.Agent, error) {
	var a agent.Agent
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// ExistsByProfileID checks if the profile already has an agent profile
func (r *GormAgentRepository) ExistsByProfileID(ctx context.Context, profileID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&agent.Agent{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds one page of agents matching the filter
func (r *GormAgentRepository) FindAll(ctx context.Context, filter agent.AgentFilter) ([]agent.Agent, int64, error) {
	query := r.db.WithContext(ctx).Model(&agent.Agent{})
	if filter.VerifiedOnly {
		query = query.Where("agents.is_verified = ?", true)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"LOWER(agents.agency)"+likeMatch+
				" OR agents.profile_id IN (SELECT id FROM profiles WHERE LOWER(full_name)"+likeMatch+")",
			pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var agents []agent.Agent
	if err := query.Order("agents.created_at DESC").Limit(limit).Offset(offset).Find(&agents).Error; err != nil {
		return nil, 0, err
	}
	return agents, total, nil
}

// Ensure GormAgentRepository implements AgentRepository
var _ agent.AgentRepository = (*GormAgentRepository)(nil)

// GormAssignmentRepository implements AssignmentRepository using GORM
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// Create inserts a new assignment
func (r *GormAssignmentRepository) Create(ctx context.Context, a *agent.AgentAssignment) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

// Update saves an existing assignment
func (r *GormAssignmentRepository) Update(ctx context.Context, a *agent.AgentAssignment) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// FindByID finds an assignment by its ID
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*agent.AgentAssignment, error) {
	var a agent.AgentAssignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// FindActiveByAgent returns an agent's active assignments
func (r *GormAssignmentRepository) FindActiveByAgent(ctx context.Context, agentID uuid.UUID) ([]agent.AgentAssignment, error) {
	var assignments []agent.AgentAssignment
	if err := r.db.WithContext(ctx).
		Where("agent_id = ? AND status = ?", agentID, agent.AssignmentStatusActive).
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindByParty returns assignments where the caller is the landlord or the agent
func (r *GormAssignmentRepository) FindByParty(ctx context.Context, landlordID uuid.UUID, agentID *uuid.UUID) ([]agent.AgentAssignment, error) {
	query := r.db.WithContext(ctx)
	if agentID != nil {
		query = query.Where("landlord_id = ? OR agent_id = ?", landlordID, *agentID)
	} else {
		query = query.Where("landlord_id = ?", landlordID)
	}

	var assignments []agent.AgentAssignment
	if err := query.Order("created_at DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// ExistsActive checks for an identical active assignment
func (r *GormAssignmentRepository) ExistsActive(ctx context.Context, agentID, landlordID uuid.UUID, propertyID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&agent.AgentAssignment{}).
		Where("agent_id = ? AND landlord_id = ? AND status = ?", agentID, landlordID, agent.AssignmentStatusActive)
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	} else {
		query = query.Where("property_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormAssignmentRepository implements AssignmentRepository
var _ agent.AssignmentRepository = (*GormAssignmentRepository)(nil)
