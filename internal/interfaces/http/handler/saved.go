package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	favoriteapp "github.com/rentnest/backend/internal/application/favorite"
)

// SavedService is the bookmark API used by SavedHandler
type SavedService interface {
	Save(ctx context.Context, userID, propertyID uuid.UUID) (*favoriteapp.SavedPropertyResult, error)
	List(ctx context.Context, userID uuid.UUID) ([]favoriteapp.SavedPropertyResult, error)
	Remove(ctx context.Context, userID, propertyID uuid.UUID) error
}

// SaveRequest bookmarks a listing
type SaveRequest struct {
	PropertyID uuid.UUID `json:"property_id" binding:"required" swaggertype:"string" format:"uuid"`
}

// SavedHandler handles saved-listing HTTP requests
type SavedHandler struct {
	BaseHandler
	savedService SavedService
}

// NewSavedHandler creates a new saved-listing handler
func NewSavedHandler(savedService SavedService) *SavedHandler {
	return &SavedHandler{savedService: savedService}
}

// Save godoc
// @Summary      Save listing
// @Tags         saved
// @Accept       json
// @Produce      json
// @Param        request body SaveRequest true "Listing to save"
// @Success      201 {object} dto.Response{data=favoriteapp.SavedPropertyResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /saved [post]
func (h *SavedHandler) Save(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req SaveRequest
	if !h.bind(c, &req) {
		return
	}

	saved, err := h.savedService.Save(c.Request.Context(), actor.ID, req.PropertyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, saved)
}

// List godoc
// @Summary      List saved listings
// @Tags         saved
// @Produce      json
// @Success      200 {object} dto.Response{data=[]favoriteapp.SavedPropertyResult}
// @Security     BearerAuth
// @Router       /saved [get]
func (h *SavedHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	saved, err := h.savedService.List(c.Request.Context(), actor.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if saved == nil {
		saved = []favoriteapp.SavedPropertyResult{}
	}

	h.Success(c, saved)
}

// Remove godoc
// @Summary      Unsave listing
// @Tags         saved
// @Param        property_id path string true "Property ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /saved/{property_id} [delete]
func (h *SavedHandler) Remove(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	propertyID, ok := h.pathUUID(c, "property_id")
	if !ok {
		return
	}

	if err := h.savedService.Remove(c.Request.Context(), actor.ID, propertyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
