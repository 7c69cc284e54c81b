package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	adminapp "github.com/rentnest/backend/internal/application/admin"
	appidentity "github.com/rentnest/backend/internal/application/identity"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminHandler(t *testing.T) {
	admin := uuid.New()
	stats := new(MockStatsService)
	profiles := new(MockProfileService)
	h := NewAdminHandler(stats, profiles)
	router := newTestRouter(asUser(admin, identity.RoleAdmin))
	router.GET("/admin/stats", h.Stats)
	router.GET("/admin/users", h.ListUsers)
	router.PUT("/admin/users/:id/role", h.ChangeRole)

	t.Run("stats", func(t *testing.T) {
		stats.On("Stats", mock.Anything).Return(&adminapp.StatsResult{
			Users:      adminapp.CountBreakdown{Total: 3, By: map[string]int64{"renter": 2, "admin": 1}},
			EscrowHeld: decimal.NewFromInt(1200),
			Messages:   7,
		}, nil).Once()

		w := perform(router, http.MethodGet, "/admin/stats", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeData[adminapp.StatsResult](t, w)
		assert.Equal(t, int64(2), data.Users.By["renter"])
		assert.True(t, data.EscrowHeld.Equal(decimal.NewFromInt(1200)))
	})

	t.Run("stats failure hides details", func(t *testing.T) {
		stats.On("Stats", mock.Anything).Return(nil, errors.New("pq: relation does not exist")).Once()

		w := perform(router, http.MethodGet, "/admin/stats", nil)

		assertErrorCode(t, w, http.StatusInternalServerError, dto.ErrCodeInternal)
		assert.NotContains(t, w.Body.String(), "relation")
	})

	t.Run("list users", func(t *testing.T) {
		role := identity.RoleLandlord
		profiles.On("ListUsers", mock.Anything, appidentity.ListUsersInput{Role: &role, Search: "smith", Page: 1, PageSize: 10}).
			Return(&shared.Paginated[appidentity.ProfileResult]{
				Items: []appidentity.ProfileResult{{ID: uuid.New(), Email: "smith@example.com", Role: identity.RoleLandlord}},
				Total: 1, Page: 1, PageSize: 10, TotalPages: 1,
			}, nil).Once()

		w := perform(router, http.MethodGet, "/admin/users?role=landlord&search=smith&page=1&page_size=10", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		users := decodeData[[]ProfileResponse](t, w)
		require.Len(t, users, 1)
		assert.Equal(t, "landlord", users[0].Role)
		assert.Equal(t, int64(1), decode(t, w).Meta.Total)
	})

	t.Run("change role", func(t *testing.T) {
		target := uuid.New()
		profiles.On("ChangeRole", mock.Anything, identity.Actor{ID: admin, Role: identity.RoleAdmin}, target, identity.RoleAgent).
			Return(&appidentity.ProfileResult{ID: target, Role: identity.RoleAgent}, nil).Once()

		w := perform(router, http.MethodPut, "/admin/users/"+target.String()+"/role", map[string]any{"role": "agent"})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "agent", decodeData[ProfileResponse](t, w).Role)

		w = perform(router, http.MethodPut, "/admin/users/"+target.String()+"/role", map[string]any{"role": "owner"})
		assertErrorCode(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	stats.AssertExpectations(t)
	profiles.AssertExpectations(t)
}
