package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	alertapp "github.com/rentnest/backend/internal/application/alert"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupAlertRouter(svc *MockAlertService, mw ...gin.HandlerFunc) *gin.Engine {
	h := NewAlertHandler(svc)
	router := newTestRouter(mw...)
	router.POST("/alerts", h.Create)
	router.GET("/alerts", h.List)
	router.GET("/alerts/:id", h.GetByID)
	router.PUT("/alerts/:id", h.Update)
	router.DELETE("/alerts/:id", h.Delete)
	router.GET("/alerts/:id/matches", h.Matches)
	return router
}

func TestAlertHandler_Create(t *testing.T) {
	userID := uuid.New()
	svc := new(MockAlertService)
	router := setupAlertRouter(svc, asUser(userID, identity.RoleRenter))

	svc.On("Create", mock.Anything, userID, mock.MatchedBy(func(in alertapp.AlertInput) bool {
		return in.Name == "Austin two-beds" &&
			in.Criteria.City == "Austin" &&
			in.Criteria.PropertyType == listing.PropertyTypeApartment &&
			in.Criteria.MaxPrice != nil && in.Criteria.MaxPrice.Equal(decimal.NewFromInt(2500)) &&
			in.Criteria.MinBedrooms != nil && *in.Criteria.MinBedrooms == 2 &&
			in.Frequency == alert.FrequencyDaily && in.IsActive == nil
	})).Return(&alertapp.AlertResult{ID: uuid.New(), Name: "Austin two-beds", Frequency: alert.FrequencyDaily, IsActive: true}, nil)

	w := perform(router, http.MethodPost, "/alerts", map[string]any{
		"name":          "Austin two-beds",
		"city":          "Austin",
		"property_type": "apartment",
		"max_price":     "2500",
		"min_bedrooms":  2,
		"frequency":     "daily",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decodeData[alertapp.AlertResult](t, w).IsActive)

	w = perform(router, http.MethodPost, "/alerts", map[string]any{"name": "x", "frequency": "hourly"})
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = perform(router, http.MethodPost, "/alerts", map[string]any{"city": "Austin"})
	assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	svc.AssertExpectations(t)
}

func TestAlertHandler_CRUD(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()
	svc := new(MockAlertService)
	router := setupAlertRouter(svc, asUser(userID, identity.RoleRenter))

	svc.On("List", mock.Anything, userID).Return([]alertapp.AlertResult{{ID: id}}, nil)
	w := perform(router, http.MethodGet, "/alerts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]alertapp.AlertResult](t, w), 1)

	svc.On("Get", mock.Anything, userID, id).Return(&alertapp.AlertResult{ID: id}, nil)
	w = perform(router, http.MethodGet, "/alerts/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	inactive := false
	svc.On("Update", mock.Anything, userID, id, mock.MatchedBy(func(in alertapp.AlertInput) bool {
		return in.IsActive != nil && !*in.IsActive
	})).Return(&alertapp.AlertResult{ID: id, IsActive: false}, nil)
	w = perform(router, http.MethodPut, "/alerts/"+id.String(), map[string]any{"name": "Paused", "is_active": inactive})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	missing := uuid.New()
	svc.On("Delete", mock.Anything, userID, id).Return(nil)
	svc.On("Delete", mock.Anything, userID, missing).Return(shared.ErrNotFound)
	w = perform(router, http.MethodDelete, "/alerts/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = perform(router, http.MethodDelete, "/alerts/"+missing.String(), nil)
	assertErrorCode(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	svc.On("Matches", mock.Anything, userID, id, 1, 10).Return(&shared.Paginated[listingapp.PropertyResult]{
		Items: []listingapp.PropertyResult{{ID: uuid.New()}, {ID: uuid.New()}}, Total: 2, Page: 1, PageSize: 10, TotalPages: 1,
	}, nil)
	w = perform(router, http.MethodGet, "/alerts/"+id.String()+"/matches?page=1&page_size=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]listingapp.PropertyResult](t, w), 2)

	svc.AssertExpectations(t)
}
