package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/rentnest/backend/internal/application/payment"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// Gateway notifications are small; anything larger is rejected before verification
const maxWebhookPayloadSize = 65536

// IdempotencyKeyHeader lets clients retry payment creation safely
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentService is the payment API used by PaymentHandler
type PaymentService interface {
	Create(ctx context.Context, actor identity.Actor, input paymentapp.CreateInput) (*paymentapp.PaymentResult, bool, error)
	List(ctx context.Context, actor identity.Actor, input paymentapp.ListInput) (*shared.Paginated[paymentapp.PaymentResult], error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*paymentapp.PaymentResult, error)
	Sync(ctx context.Context, actor identity.Actor, id uuid.UUID) (*paymentapp.PaymentResult, error)
	Refund(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*paymentapp.PaymentResult, error)
	HandleWebhook(ctx context.Context, provider string, payload []byte, headers map[string]string) error
	Receipt(ctx context.Context, actor identity.Actor, id uuid.UUID) (*paymentapp.ReceiptFile, error)
}

// CreatePaymentRequest opens a payment for a listing
type CreatePaymentRequest struct {
	PropertyID        uuid.UUID       `json:"property_id" binding:"required" swaggertype:"string" format:"uuid"`
	ApplicationID     *uuid.UUID      `json:"application_id" swaggertype:"string" format:"uuid"`
	Amount            decimal.Decimal `json:"amount" binding:"dpositive" swaggertype:"string" example:"1850.00"`
	Currency          string          `json:"currency" binding:"omitempty,len=3,currency" example:"USD"`
	PaymentType       string          `json:"payment_type" binding:"required,oneof=rent deposit application_fee" example:"deposit"`
	Provider          string          `json:"provider" binding:"omitempty,oneof=stripe paypal" example:"stripe"`
	Description       string          `json:"description" binding:"max=500"`
	HoldInEscrow      bool            `json:"hold_in_escrow"`
	ReleaseConditions string          `json:"release_conditions" binding:"max=2000"`
}

// RefundPaymentRequest refunds a succeeded payment
type RefundPaymentRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Lease fell through"`
}

// PaymentListQuery filters the caller's payments
type PaymentListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending succeeded failed refunded canceled"`
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	Pagination
}

// WebhookResponse acknowledges a gateway notification
type WebhookResponse struct {
	Received bool `json:"received" example:"true"`
}

// PaymentHandler handles payment HTTP requests and gateway webhooks
type PaymentHandler struct {
	BaseHandler
	paymentService PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Create godoc
// @Summary      Create payment
// @Description  Opens a payment intent with the gateway. A repeated Idempotency-Key returns the original payment with 200.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client idempotency key"
// @Param        request body CreatePaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=paymentapp.PaymentResult}
// @Success      201 {object} dto.Response{data=paymentapp.PaymentResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if !h.bind(c, &req) {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > 255 {
		h.BadRequest(c, "Idempotency-Key must be at most 255 characters")
		return
	}

	provider := payment.ProviderStripe
	if req.Provider != "" {
		provider = payment.Provider(req.Provider)
	}

	result, replay, err := h.paymentService.Create(c.Request.Context(), actor, paymentapp.CreateInput{
		PropertyID:        req.PropertyID,
		ApplicationID:     req.ApplicationID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		PaymentType:       payment.PaymentType(req.PaymentType),
		Provider:          provider,
		Description:       req.Description,
		IdempotencyKey:    key,
		HoldInEscrow:      req.HoldInEscrow,
		ReleaseConditions: req.ReleaseConditions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if replay {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// List godoc
// @Summary      List payments
// @Description  Payments the caller made or received; admins see all
// @Tags         payments
// @Produce      json
// @Param        status query string false "Status" Enums(pending, succeeded, failed, refunded, canceled)
// @Param        property_id query string false "Property ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]paymentapp.PaymentResult,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var query PaymentListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	input := paymentapp.ListInput{Page: query.Page, PageSize: query.PageSize}
	if query.Status != "" {
		status := payment.Status(query.Status)
		input.Status = &status
	}
	if id, err := uuid.Parse(query.PropertyID); err == nil {
		input.PropertyID = &id
	}

	result, err := h.paymentService.List(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// GetByID godoc
// @Summary      Get payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=paymentapp.PaymentResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.paymentService.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Sync godoc
// @Summary      Refresh payment status
// @Description  Queries the gateway and applies the current status of a pending payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=paymentapp.PaymentResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/sync [post]
func (h *PaymentHandler) Sync(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.paymentService.Sync(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Refund godoc
// @Summary      Refund payment
// @Description  Refunds a succeeded payment. Allowed for the payee and admins.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body RefundPaymentRequest false "Reason"
// @Success      200 {object} dto.Response{data=paymentapp.PaymentResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RefundPaymentRequest
	if c.Request.ContentLength != 0 {
		if !h.bind(c, &req) {
			return
		}
	}

	result, err := h.paymentService.Refund(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Receipt godoc
// @Summary      Download receipt
// @Description  PDF receipt for a succeeded or refunded payment
// @Tags         payments
// @Produce      application/pdf
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {file} binary
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /payments/{id}/receipt [get]
func (h *PaymentHandler) Receipt(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	file, err := h.paymentService.Receipt(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Header("Content-Length", strconv.Itoa(len(file.Content)))
	c.Data(http.StatusOK, "application/pdf", file.Content)
}

// Webhook godoc
// @Summary      Payment gateway webhook
// @Description  Receives signed notifications from Stripe or PayPal. Duplicate deliveries are acknowledged without effect.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider path string true "Gateway" Enums(stripe, paypal)
// @Success      200 {object} dto.Response{data=WebhookResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/webhooks/{provider} [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	// the raw body is needed for signature verification
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Fail(c, dto.ErrCodeRequestTooLarge, "Payload too large")
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.Request.Header.Get(name)
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), c.Param("provider"), payload, headers); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, WebhookResponse{Received: true})
}
