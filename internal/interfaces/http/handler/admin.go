package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	adminapp "github.com/rentnest/backend/internal/application/admin"
	appidentity "github.com/rentnest/backend/internal/application/identity"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/shared"
)

// StatsService produces the admin dashboard
type StatsService interface {
	Stats(ctx context.Context) (*adminapp.StatsResult, error)
}

// UserListQuery filters the admin user list
type UserListQuery struct {
	Role   string `form:"role" binding:"omitempty,oneof=renter landlord agent admin"`
	Search string `form:"search" binding:"max=100"`
	Pagination
}

// ChangeRoleRequest sets a user's role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=renter landlord agent admin" example:"landlord"`
}

// AdminHandler handles admin dashboard and user management requests
type AdminHandler struct {
	BaseHandler
	statsService   StatsService
	profileService ProfileService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(statsService StatsService, profileService ProfileService) *AdminHandler {
	return &AdminHandler{
		statsService:   statsService,
		profileService: profileService,
	}
}

// Stats godoc
// @Summary      Platform statistics
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=adminapp.StatsResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.statsService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// ListUsers godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        role query string false "Role" Enums(renter, landlord, agent, admin)
// @Param        search query string false "Name or email"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]ProfileResponse,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query UserListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	input := appidentity.ListUsersInput{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Role != "" {
		role := identity.Role(query.Role)
		input.Role = &role
	}

	result, err := h.profileService.ListUsers(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := shared.NewPaginated(toProfileResponses(result.Items), result.Total, result.Page, result.PageSize)
	Paginated(&h.BaseHandler, c, &page)
}

// ChangeRole godoc
// @Summary      Change user role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body ChangeRoleRequest true "New role"
// @Success      200 {object} dto.Response{data=ProfileResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/role [put]
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !h.bind(c, &req) {
		return
	}

	profile, err := h.profileService.ChangeRole(c.Request.Context(), actor, id, identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toProfileResponse(*profile))
}
