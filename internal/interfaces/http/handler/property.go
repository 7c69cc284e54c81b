package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/interfaces/http/middleware"
)

// PropertyService is the listing API used by PropertyHandler
type PropertyService interface {
	Search(ctx context.Context, viewer *identity.Actor, filter listing.SearchFilter) (*shared.Paginated[listingapp.PropertyResult], error)
	Get(ctx context.Context, id uuid.UUID) (*listingapp.PropertyResult, error)
	Create(ctx context.Context, actor identity.Actor, input listingapp.PropertyInput) (*listingapp.PropertyResult, error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input listingapp.UpdatePropertyInput) (*listingapp.PropertyResult, error)
	ChangeStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, status listing.PropertyStatus) (*listingapp.PropertyResult, error)
	Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error
	Mine(ctx context.Context, actor identity.Actor, page, pageSize int) (*shared.Paginated[listingapp.PropertyResult], error)
	CreateUploadURL(ctx context.Context, actor identity.Actor, id uuid.UUID, input listingapp.UploadURLInput) (*listingapp.UploadURLResult, error)
	AddImage(ctx context.Context, actor identity.Actor, id uuid.UUID, storageKey string) (*listingapp.PropertyResult, error)
	RemoveImage(ctx context.Context, actor identity.Actor, id uuid.UUID, storageKey string) (*listingapp.PropertyResult, error)
}

// PropertyHandler handles listing HTTP requests
type PropertyHandler struct {
	BaseHandler
	propertyService PropertyService
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(propertyService PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// Search godoc
// @Summary      Search listings
// @Description  Public listing search. Anonymous callers only see available listings unless a status is given.
// @Tags         properties
// @Produce      json
// @Param        city query string false "City, case-insensitive"
// @Param        state query string false "State, case-insensitive"
// @Param        property_type query string false "Property type" Enums(apartment, house, condo, townhouse, studio, room)
// @Param        status query string false "Listing status" Enums(available, pending, rented, inactive)
// @Param        min_price query number false "Minimum monthly price"
// @Param        max_price query number false "Maximum monthly price"
// @Param        min_bedrooms query int false "Minimum bedrooms"
// @Param        max_bedrooms query int false "Maximum bedrooms"
// @Param        min_bathrooms query number false "Minimum bathrooms"
// @Param        pets_allowed query bool false "Pets allowed"
// @Param        furnished query bool false "Furnished"
// @Param        owner_id query string false "Owner ID" format(uuid)
// @Param        search query string false "Keyword in title, description, address or city"
// @Param        order_by query string false "Sort field" Enums(created_at, price, bedrooms, square_feet, title)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]listingapp.PropertyResult,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /properties [get]
func (h *PropertyHandler) Search(c *gin.Context) {
	var query PropertySearchQuery
	if !h.bindQuery(c, &query) {
		return
	}

	var viewer *identity.Actor
	if actor, ok := middleware.GetActor(c); ok {
		viewer = &actor
	}

	page, err := h.propertyService.Search(c.Request.Context(), viewer, query.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, page)
}

// GetByID godoc
// @Summary      Get listing
// @Tags         properties
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Success      200 {object} dto.Response{data=listingapp.PropertyResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /properties/{id} [get]
func (h *PropertyHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	property, err := h.propertyService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, property)
}

// Create godoc
// @Summary      Create listing
// @Description  List a new property owned by the calling landlord
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        request body PropertyRequest true "Listing details"
// @Success      201 {object} dto.Response{data=listingapp.PropertyResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties [post]
func (h *PropertyHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req PropertyRequest
	if !h.bind(c, &req) {
		return
	}

	property, err := h.propertyService.Create(c.Request.Context(), actor, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, property)
}

// Update godoc
// @Summary      Update listing
// @Description  Replace a listing's details. Allowed for the owner, an agent with edit rights, or an admin.
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Param        request body UpdatePropertyRequest true "Listing details"
// @Success      200 {object} dto.Response{data=listingapp.PropertyResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id} [put]
func (h *PropertyHandler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdatePropertyRequest
	if !h.bind(c, &req) {
		return
	}

	input := listingapp.UpdatePropertyInput{PropertyInput: req.toInput()}
	if req.Status != "" {
		status := listing.PropertyStatus(req.Status)
		input.Status = &status
	}

	property, err := h.propertyService.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, property)
}

// Delete godoc
// @Summary      Delete listing
// @Tags         properties
// @Param        id path string true "Property ID" format(uuid)
// @Success      204
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.propertyService.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Mine godoc
// @Summary      My listings
// @Description  Listings the caller owns, or for agents the listings they are assigned to
// @Tags         properties
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]listingapp.PropertyResult,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/mine [get]
func (h *PropertyHandler) Mine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	page, pageSize := pageQuery(c)

	result, err := h.propertyService.Mine(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// ChangeStatus godoc
// @Summary      Moderate listing status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Param        request body PropertyStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=listingapp.PropertyResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/properties/{id}/status [put]
func (h *PropertyHandler) ChangeStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req PropertyStatusRequest
	if !h.bind(c, &req) {
		return
	}

	property, err := h.propertyService.ChangeStatus(c.Request.Context(), actor, id, listing.PropertyStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, property)
}

// CreateUploadURL godoc
// @Summary      Presign image upload
// @Description  Returns a presigned PUT URL; confirm the upload with POST /properties/{id}/images
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Param        request body UploadURLRequest true "Image file"
// @Success      200 {object} dto.Response{data=listingapp.UploadURLResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id}/images/upload-url [post]
func (h *PropertyHandler) CreateUploadURL(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UploadURLRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.propertyService.CreateUploadURL(c.Request.Context(), actor, id, listingapp.UploadURLInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AddImage godoc
// @Summary      Attach uploaded image
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Param        request body ImageRequest true "Storage key returned by upload-url"
// @Success      201 {object} dto.Response{data=listingapp.PropertyResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id}/images [post]
func (h *PropertyHandler) AddImage(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ImageRequest
	if !h.bind(c, &req) {
		return
	}

	property, err := h.propertyService.AddImage(c.Request.Context(), actor, id, req.StorageKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, property)
}

// RemoveImage godoc
// @Summary      Remove image
// @Tags         properties
// @Accept       json
// @Produce      json
// @Param        id path string true "Property ID" format(uuid)
// @Param        request body ImageRequest true "Storage key of the image"
// @Success      200 {object} dto.Response{data=listingapp.PropertyResult}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /properties/{id}/images [delete]
func (h *PropertyHandler) RemoveImage(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ImageRequest
	if !h.bind(c, &req) {
		return
	}

	property, err := h.propertyService.RemoveImage(c.Request.Context(), actor, id, req.StorageKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, property)
}
