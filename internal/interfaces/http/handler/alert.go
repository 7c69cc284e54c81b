package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	alertapp "github.com/rentnest/backend/internal/application/alert"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AlertService is the saved-search API used by AlertHandler
type AlertService interface {
	Create(ctx context.Context, userID uuid.UUID, input alertapp.AlertInput) (*alertapp.AlertResult, error)
	List(ctx context.Context, userID uuid.UUID) ([]alertapp.AlertResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*alertapp.AlertResult, error)
	Update(ctx context.Context, userID, id uuid.UUID, input alertapp.AlertInput) (*alertapp.AlertResult, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Matches(ctx context.Context, userID, id uuid.UUID, page, pageSize int) (*shared.Paginated[listingapp.PropertyResult], error)
}

// AlertRequest creates or replaces a saved search
type AlertRequest struct {
	Name         string           `json:"name" binding:"required,max=100" example:"Two-beds in Austin"`
	City         string           `json:"city" binding:"max=100" example:"Austin"`
	State        string           `json:"state" binding:"max=100"`
	PropertyType string           `json:"property_type" binding:"omitempty,oneof=apartment house condo townhouse studio room"`
	MinPrice     *decimal.Decimal `json:"min_price" binding:"omitempty,dpositive" swaggertype:"string"`
	MaxPrice     *decimal.Decimal `json:"max_price" binding:"omitempty,dpositive" swaggertype:"string" example:"2500.00"`
	MinBedrooms  *int             `json:"min_bedrooms" binding:"omitempty,gte=0" example:"2"`
	MinBathrooms *float64         `json:"min_bathrooms" binding:"omitempty,gte=0"`
	PetsAllowed  *bool            `json:"pets_allowed"`
	Furnished    *bool            `json:"furnished"`
	Frequency    string           `json:"frequency" binding:"omitempty,oneof=instant daily weekly" example:"daily"`
	IsActive     *bool            `json:"is_active"`
}

func (r AlertRequest) toInput() alertapp.AlertInput {
	return alertapp.AlertInput{
		Name: r.Name,
		Criteria: listing.Criteria{
			City:         r.City,
			State:        r.State,
			PropertyType: listing.PropertyType(r.PropertyType),
			MinPrice:     r.MinPrice,
			MaxPrice:     r.MaxPrice,
			MinBedrooms:  r.MinBedrooms,
			MinBathrooms: r.MinBathrooms,
			PetsAllowed:  r.PetsAllowed,
			Furnished:    r.Furnished,
		},
		Frequency: alert.Frequency(r.Frequency),
		IsActive:  r.IsActive,
	}
}

// AlertHandler handles saved-search HTTP requests
type AlertHandler struct {
	BaseHandler
	alertService AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// Create godoc
// @Summary      Create search alert
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        request body AlertRequest true "Saved search"
// @Success      201 {object} dto.Response{data=alertapp.AlertResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts [post]
func (h *AlertHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req AlertRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.alertService.Create(c.Request.Context(), actor.ID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List godoc
// @Summary      List search alerts
// @Tags         alerts
// @Produce      json
// @Success      200 {object} dto.Response{data=[]alertapp.AlertResult}
// @Security     BearerAuth
// @Router       /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	alerts, err := h.alertService.List(c.Request.Context(), actor.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if alerts == nil {
		alerts = []alertapp.AlertResult{}
	}

	h.Success(c, alerts)
}

// GetByID godoc
// @Summary      Get search alert
// @Tags         alerts
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Success      200 {object} dto.Response{data=alertapp.AlertResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts/{id} [get]
func (h *AlertHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.alertService.Get(c.Request.Context(), actor.ID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Update godoc
// @Summary      Replace search alert
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Param        request body AlertRequest true "Saved search"
// @Success      200 {object} dto.Response{data=alertapp.AlertResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts/{id} [put]
func (h *AlertHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AlertRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.alertService.Update(c.Request.Context(), actor.ID, id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete godoc
// @Summary      Delete search alert
// @Tags         alerts
// @Param        id path string true "Alert ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts/{id} [delete]
func (h *AlertHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.alertService.Delete(c.Request.Context(), actor.ID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Matches godoc
// @Summary      Listings matching an alert
// @Description  Available listings that satisfy the alert's criteria, newest first
// @Tags         alerts
// @Produce      json
// @Param        id path string true "Alert ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]listingapp.PropertyResult,meta=dto.Meta}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /alerts/{id}/matches [get]
func (h *AlertHandler) Matches(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	page, pageSize := pageQuery(c)

	result, err := h.alertService.Matches(c.Request.Context(), actor.ID, id, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}
