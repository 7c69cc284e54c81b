package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	leasingapp "github.com/rentnest/backend/internal/application/leasing"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/leasing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ApplicationService is the rental application API used by ApplicationHandler
type ApplicationService interface {
	Submit(ctx context.Context, actor identity.Actor, input leasingapp.SubmitInput) (*leasingapp.ApplicationResult, error)
	List(ctx context.Context, actor identity.Actor, input leasingapp.ListInput) (*shared.Paginated[leasingapp.ApplicationResult], error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*leasingapp.ApplicationResult, error)
	Review(ctx context.Context, actor identity.Actor, id uuid.UUID, input leasingapp.ReviewInput) (*leasingapp.ApplicationResult, error)
	Withdraw(ctx context.Context, actor identity.Actor, id uuid.UUID) (*leasingapp.ApplicationResult, error)
}

// SubmitApplicationRequest is a renter's application
type SubmitApplicationRequest struct {
	PropertyID    uuid.UUID        `json:"property_id" binding:"required" swaggertype:"string" format:"uuid"`
	Message       string           `json:"message" binding:"max=5000"`
	MoveInDate    *time.Time       `json:"move_in_date"`
	MonthlyIncome *decimal.Decimal `json:"monthly_income" binding:"omitempty,dpositive" swaggertype:"string" example:"5200.00"`
	Occupants     int              `json:"occupants" binding:"gte=0,lte=20" example:"2"`
}

// ReviewApplicationRequest approves or rejects an application
type ReviewApplicationRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected" example:"approved"`
	Note   string `json:"note" binding:"max=2000"`
}

// ApplicationListQuery filters the caller's applications
type ApplicationListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending approved rejected withdrawn"`
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	Pagination
}

// ApplicationHandler handles rental application HTTP requests
type ApplicationHandler struct {
	BaseHandler
	applicationService ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applicationService ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// Submit godoc
// @Summary      Apply for a listing
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        request body SubmitApplicationRequest true "Application"
// @Success      201 {object} dto.Response{data=leasingapp.ApplicationResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req SubmitApplicationRequest
	if !h.bind(c, &req) {
		return
	}

	application, err := h.applicationService.Submit(c.Request.Context(), actor, leasingapp.SubmitInput{
		PropertyID:    req.PropertyID,
		Message:       req.Message,
		MoveInDate:    req.MoveInDate,
		MonthlyIncome: req.MonthlyIncome,
		Occupants:     req.Occupants,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, application)
}

// List godoc
// @Summary      List applications
// @Description  Renters see their own applications, landlords and agents see applications to listings they manage, admins see all
// @Tags         applications
// @Produce      json
// @Param        status query string false "Status" Enums(pending, approved, rejected, withdrawn)
// @Param        property_id query string false "Property ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]leasingapp.ApplicationResult,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query ApplicationListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	input := leasingapp.ListInput{Page: query.Page, PageSize: query.PageSize}
	if query.Status != "" {
		status := leasing.ApplicationStatus(query.Status)
		input.Status = &status
	}
	if id, err := uuid.Parse(query.PropertyID); err == nil {
		input.PropertyID = &id
	}

	page, err := h.applicationService.List(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get application
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=leasingapp.ApplicationResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id} [get]
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	application, err := h.applicationService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, application)
}

// Review godoc
// @Summary      Review application
// @Description  Approve or reject a pending application. Approval moves the listing to pending.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Param        request body ReviewApplicationRequest true "Decision"
// @Success      200 {object} dto.Response{data=leasingapp.ApplicationResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id} [put]
func (h *ApplicationHandler) Review(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ReviewApplicationRequest
	if !h.bind(c, &req) {
		return
	}

	application, err := h.applicationService.Review(c.Request.Context(), actor, id, leasingapp.ReviewInput{
		Status: leasing.ApplicationStatus(req.Status),
		Note:   req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, application)
}

// Withdraw godoc
// @Summary      Withdraw application
// @Tags         applications
// @Produce      json
// @Param        id path string true "Application ID" format(uuid)
// @Success      200 {object} dto.Response{data=leasingapp.ApplicationResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /applications/{id} [delete]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	application, err := h.applicationService.Withdraw(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, application)
}
