package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	escrowapp "github.com/rentnest/backend/internal/application/escrow"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EscrowService is the escrow API used by EscrowHandler
type EscrowService interface {
	List(ctx context.Context, actor identity.Actor, input escrowapp.ListInput) (*shared.Paginated[escrowapp.EscrowResult], error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*escrowapp.EscrowResult, error)
	Create(ctx context.Context, actor identity.Actor, input escrowapp.CreateInput) (*escrowapp.EscrowResult, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, action payment.EscrowAction, reason string) (*escrowapp.EscrowResult, error)
}

// CreateEscrowRequest holds funds for a listing's owner
type CreateEscrowRequest struct {
	PropertyID        uuid.UUID       `json:"property_id" binding:"required" swaggertype:"string" format:"uuid"`
	PaymentID         *uuid.UUID      `json:"payment_id" swaggertype:"string" format:"uuid"`
	Amount            decimal.Decimal `json:"amount" binding:"dpositive" swaggertype:"string" example:"1850.00"`
	Currency          string          `json:"currency" binding:"omitempty,len=3,currency" example:"USD"`
	Description       string          `json:"description" binding:"max=500"`
	ReleaseConditions string          `json:"release_conditions" binding:"max=2000" example:"Released on key handover"`
}

// EscrowActionRequest moves an escrow to its next state.
// ID is only read on PUT /escrow, where the path carries no id.
type EscrowActionRequest struct {
	ID     *uuid.UUID `json:"id" swaggertype:"string" format:"uuid"`
	Action string     `json:"action" binding:"required,oneof=release refund dispute" example:"release"`
	Reason string     `json:"reason" binding:"max=2000"`
}

// EscrowListQuery filters the caller's escrows
type EscrowListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=held released refunded disputed"`
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	Pagination
}

// EscrowHandler handles escrow HTTP requests
type EscrowHandler struct {
	BaseHandler
	escrowService EscrowService
}

// NewEscrowHandler creates a new escrow handler
func NewEscrowHandler(escrowService EscrowService) *EscrowHandler {
	return &EscrowHandler{escrowService: escrowService}
}

// List godoc
// @Summary      List escrows
// @Description  Escrows where the caller is payer or payee; admins see all
// @Tags         escrow
// @Produce      json
// @Param        status query string false "Status" Enums(held, released, refunded, disputed)
// @Param        property_id query string false "Property ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]escrowapp.EscrowResult,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /escrow [get]
func (h *EscrowHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query EscrowListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	input := escrowapp.ListInput{Page: query.Page, PageSize: query.PageSize}
	if query.Status != "" {
		status := payment.EscrowStatus(query.Status)
		input.Status = &status
	}
	if id, err := uuid.Parse(query.PropertyID); err == nil {
		input.PropertyID = &id
	}

	result, err := h.escrowService.List(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// GetByID godoc
// @Summary      Get escrow
// @Tags         escrow
// @Produce      json
// @Param        id path string true "Escrow ID" format(uuid)
// @Success      200 {object} dto.Response{data=escrowapp.EscrowResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /escrow/{id} [get]
func (h *EscrowHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.escrowService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Create godoc
// @Summary      Hold funds in escrow
// @Tags         escrow
// @Accept       json
// @Produce      json
// @Param        request body CreateEscrowRequest true "Escrow"
// @Success      201 {object} dto.Response{data=escrowapp.EscrowResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /escrow [post]
func (h *EscrowHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreateEscrowRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.escrowService.Create(c.Request.Context(), actor, escrowapp.CreateInput{
		PropertyID:        req.PropertyID,
		PaymentID:         req.PaymentID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Description:       req.Description,
		ReleaseConditions: req.ReleaseConditions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Update godoc
// @Summary      Release, refund or dispute an escrow
// @Description  The payer releases, the payee refunds, either party disputes. Admins resolve disputes.
// @Tags         escrow
// @Accept       json
// @Produce      json
// @Param        id path string true "Escrow ID" format(uuid)
// @Param        request body EscrowActionRequest true "Action"
// @Success      200 {object} dto.Response{data=escrowapp.EscrowResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /escrow/{id} [put]
func (h *EscrowHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req EscrowActionRequest
	if !h.bind(c, &req) {
		return
	}

	var id uuid.UUID
	if c.Param("id") != "" {
		if id, ok = h.pathUUID(c, "id"); !ok {
			return
		}
	} else {
		if req.ID == nil || *req.ID == uuid.Nil {
			h.BadRequest(c, "id is required")
			return
		}
		id = *req.ID
	}

	result, err := h.escrowService.Update(c.Request.Context(), actor, id, payment.EscrowAction(req.Action), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
