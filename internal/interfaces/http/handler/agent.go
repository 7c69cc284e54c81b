package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	agentapp "github.com/rentnest/backend/internal/application/agent"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/shared"
)

// AgentService is the agent directory and delegation API used by AgentHandler
type AgentService interface {
	Register(ctx context.Context, actor identity.Actor, input agentapp.AgentInput) (*agentapp.AgentResult, error)
	List(ctx context.Context, input agentapp.ListInput) (*shared.Paginated[agentapp.AgentResult], error)
	Get(ctx context.Context, id uuid.UUID) (*agentapp.AgentResult, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input agentapp.AgentInput) (*agentapp.AgentResult, error)
	Verify(ctx context.Context, actor identity.Actor, id uuid.UUID, verified bool) (*agentapp.AgentResult, error)
	Assign(ctx context.Context, actor identity.Actor, input agentapp.AssignInput) (*agentapp.AssignmentResult, error)
	ListAssignments(ctx context.Context, actor identity.Actor) ([]agentapp.AssignmentResult, error)
	UpdatePermissions(ctx context.Context, actor identity.Actor, id uuid.UUID, perms agent.Permissions) (*agentapp.AssignmentResult, error)
	Revoke(ctx context.Context, actor identity.Actor, id uuid.UUID) (*agentapp.AssignmentResult, error)
}

// AgentRequest registers or edits an agent profile
type AgentRequest struct {
	LicenseNumber   string   `json:"license_number" binding:"required,max=50" example:"TX-558201"`
	Agency          string   `json:"agency" binding:"max=200" example:"Lone Star Realty"`
	Bio             string   `json:"bio" binding:"max=5000"`
	Specialties     []string `json:"specialties" binding:"max=20,dive,max=50"`
	YearsExperience int      `json:"years_experience" binding:"gte=0,lte=80" example:"7"`
}

func (r AgentRequest) toInput() agentapp.AgentInput {
	return agentapp.AgentInput{
		LicenseNumber:   r.LicenseNumber,
		Agency:          r.Agency,
		Bio:             r.Bio,
		Specialties:     r.Specialties,
		YearsExperience: r.YearsExperience,
	}
}

// VerifyAgentRequest sets the verified badge
type VerifyAgentRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// PermissionsRequest is the set of rights delegated to an agent
type PermissionsRequest struct {
	CanEditListings       bool `json:"can_edit_listings"`
	CanManageApplications bool `json:"can_manage_applications"`
	CanMessageTenants     bool `json:"can_message_tenants"`
}

func (r PermissionsRequest) toPermissions() agent.Permissions {
	return agent.Permissions{
		CanEditListings:       r.CanEditListings,
		CanManageApplications: r.CanManageApplications,
		CanMessageTenants:     r.CanMessageTenants,
	}
}

// AssignAgentRequest delegates a landlord's listings to an agent.
// Without property_id the assignment covers every listing of the landlord.
type AssignAgentRequest struct {
	AgentID    uuid.UUID  `json:"agent_id" binding:"required" swaggertype:"string" format:"uuid"`
	PropertyID *uuid.UUID `json:"property_id" swaggertype:"string" format:"uuid"`
	PermissionsRequest
}

// AgentListQuery filters the public agent directory
type AgentListQuery struct {
	Verified bool   `form:"verified"`
	Search   string `form:"search" binding:"max=100"`
	Pagination
}

// AgentHandler handles agent HTTP requests
type AgentHandler struct {
	BaseHandler
	agentService AgentService
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(agentService AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// Register godoc
// @Summary      Register agent profile
// @Description  Creates the caller's agent profile. Requires the agent role.
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        request body AgentRequest true "Agent profile"
// @Success      201 {object} dto.Response{data=agentapp.AgentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agents [post]
func (h *AgentHandler) Register(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req AgentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.agentService.Register(c.Request.Context(), actor, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
// @Summary      Agent directory
// @Tags         agents
// @Produce      json
// @Param        verified query bool false "Only verified agents"
// @Param        search query string false "Name or agency"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]agentapp.AgentResult,meta=dto.Meta}
// @Router       /agents [get]
func (h *AgentHandler) List(c *gin.Context) {
	var query AgentListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	result, err := h.agentService.List(c.Request.Context(), agentapp.ListInput{
		VerifiedOnly: query.Verified,
		Search:       query.Search,
		Page:         query.Page,
		PageSize:     query.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// GetByID godoc
// @Summary      Get agent
// @Tags         agents
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Success      200 {object} dto.Response{data=agentapp.AgentResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /agents/{id} [get]
func (h *AgentHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.agentService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Update godoc
// @Summary      Update agent profile
// @Description  The agent may edit their own profile; admins may edit any
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Param        request body AgentRequest true "Agent profile"
// @Success      200 {object} dto.Response{data=agentapp.AgentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agents/{id} [put]
func (h *AgentHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AgentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.agentService.Update(c.Request.Context(), actor, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Verify godoc
// @Summary      Verify agent
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Agent ID" format(uuid)
// @Param        request body VerifyAgentRequest true "Verification flag"
// @Success      200 {object} dto.Response{data=agentapp.AgentResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/agents/{id}/verify [put]
func (h *AgentHandler) Verify(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req VerifyAgentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.agentService.Verify(c.Request.Context(), actor, id, *req.Verified)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Assign godoc
// @Summary      Assign agent
// @Description  Delegates one listing, or every listing of the landlord, to an agent
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        request body AssignAgentRequest true "Assignment"
// @Success      201 {object} dto.Response{data=agentapp.AssignmentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agents/assignments [post]
func (h *AgentHandler) Assign(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req AssignAgentRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.agentService.Assign(c.Request.Context(), actor, agentapp.AssignInput{
		AgentID:     req.AgentID,
		PropertyID:  req.PropertyID,
		Permissions: req.toPermissions(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListAssignments godoc
// @Summary      List assignments
// @Description  Landlords see assignments they granted, agents see assignments they hold
// @Tags         agents
// @Produce      json
// @Success      200 {object} dto.Response{data=[]agentapp.AssignmentResult}
// @Security     BearerAuth
// @Router       /agents/assignments [get]
func (h *AgentHandler) ListAssignments(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.agentService.ListAssignments(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result == nil {
		result = []agentapp.AssignmentResult{}
	}

	h.Success(c, result)
}

// UpdatePermissions godoc
// @Summary      Change assignment permissions
// @Tags         agents
// @Accept       json
// @Produce      json
// @Param        id path string true "Assignment ID" format(uuid)
// @Param        request body PermissionsRequest true "Permissions"
// @Success      200 {object} dto.Response{data=agentapp.AssignmentResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agents/assignments/{id} [put]
func (h *AgentHandler) UpdatePermissions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req PermissionsRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.agentService.UpdatePermissions(c.Request.Context(), actor, id, req.toPermissions())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Revoke godoc
// @Summary      Revoke assignment
// @Tags         agents
// @Produce      json
// @Param        id path string true "Assignment ID" format(uuid)
// @Success      200 {object} dto.Response{data=agentapp.AssignmentResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /agents/assignments/{id} [delete]
func (h *AgentHandler) Revoke(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.agentService.Revoke(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
