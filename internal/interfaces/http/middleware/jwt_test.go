package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/rentnest/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blacklistValidator mirrors how the auth service checks revocation
type blacklistValidator struct {
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
}

func (v *blacklistValidator) ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := v.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if revoked, _ := v.blacklist.IsBlacklisted(ctx, claims.ID); revoked {
		return nil, auth.ErrTokenBlacklisted
	}
	return claims, nil
}

func newTestJWTService(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  ttl,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "rentnest-test",
	})
}

func newValidator(ttl time.Duration) *blacklistValidator {
	return &blacklistValidator{jwt: newTestJWTService(ttl), blacklist: auth.NewInMemoryTokenBlacklist()}
}

func issue(t *testing.T, v *blacklistValidator, role identity.Role) (*auth.TokenPair, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	pair, err := v.jwt.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: userID,
		Email:  "rita@example.com",
		Role:   string(role),
	})
	require.NoError(t, err)
	return pair, userID
}

func authRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(mw...)
	router.GET("/api/auth/me", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID.String(), "role": string(actor.Role), "user_id": GetJWTUserID(c)})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func doGet(router *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(AuthHeaderKey, bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.Error.RequestID)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	v := newValidator(15 * time.Minute)
	pair, userID := issue(t, v, identity.RoleLandlord)

	w := doGet(authRouter(JWTAuthMiddleware(v)), "/api/auth/me", BearerPrefix+pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID.String(), body["id"])
	assert.Equal(t, userID.String(), body["user_id"])
	assert.Equal(t, "landlord", body["role"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	v := newValidator(15 * time.Minute)
	pair, _ := issue(t, v, identity.RoleRenter)
	expired := newValidator(-time.Minute)
	expiredPair, _ := issue(t, expired, identity.RoleRenter)

	tests := []struct {
		name   string
		v      TokenValidator
		bearer string
		code   string
	}{
		{"missing header", v, "", dto.ErrCodeUnauthorized},
		{"wrong scheme", v, "Basic abc", dto.ErrCodeTokenInvalid},
		{"empty bearer", v, "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", v, BearerPrefix + "not.a.jwt", dto.ErrCodeTokenInvalid},
		{"refresh token used as access", v, BearerPrefix + pair.RefreshToken, dto.ErrCodeTokenInvalid},
		{"expired", expired, BearerPrefix + expiredPair.AccessToken, dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(authRouter(JWTAuthMiddleware(tt.v)), "/api/auth/me", tt.bearer)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	v := newValidator(15 * time.Minute)
	pair, _ := issue(t, v, identity.RoleRenter)
	claims, err := v.jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, v.blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

	w := doGet(authRouter(JWTAuthMiddleware(v)), "/api/auth/me", BearerPrefix+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	v := newValidator(15 * time.Minute)
	w := doGet(authRouter(JWTAuthMiddleware(v)), "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	cfg := DefaultJWTConfig(v)
	cfg.SkipPathPrefixes = append(cfg.SkipPathPrefixes, "/api/auth")
	w = doGet(authRouter(JWTAuthMiddlewareWithConfig(cfg)), "/api/auth/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestJWTAuthMiddleware_QueryParam(t *testing.T) {
	v := newValidator(15 * time.Minute)
	pair, userID := issue(t, v, identity.RoleRenter)

	cfg := DefaultJWTConfig(v)
	cfg.QueryParam = "access_token"
	router := authRouter(JWTAuthMiddlewareWithConfig(cfg))

	w := doGet(router, "/api/auth/me?access_token="+pair.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())

	w = doGet(authRouter(JWTAuthMiddleware(v)), "/api/auth/me?access_token="+pair.AccessToken, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	v := newValidator(15 * time.Minute)
	cfg := DefaultJWTConfig(v)
	cfg.OnError = func(c *gin.Context, err error) {
		c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"err": err.Error()})
	}

	w := doGet(authRouter(JWTAuthMiddlewareWithConfig(cfg)), "/api/auth/me", "")
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	v := newValidator(15 * time.Minute)
	pair, userID := issue(t, v, identity.RoleAgent)
	router := authRouter(OptionalJWTAuthMiddleware(v))

	w := doGet(router, "/api/auth/me", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = doGet(router, "/api/auth/me", BearerPrefix+"broken")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = doGet(router, "/api/auth/me", BearerPrefix+pair.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestRequireRole(t *testing.T) {
	v := newValidator(15 * time.Minute)
	renter, _ := issue(t, v, identity.RoleRenter)
	admin, _ := issue(t, v, identity.RoleAdmin)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/api/admin/stats", JWTAuthMiddleware(v), RequireRole(identity.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/open", RequireRole(identity.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := doGet(router, "/api/admin/stats", BearerPrefix+renter.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))

	w = doGet(router, "/api/admin/stats", BearerPrefix+admin.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(router, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetActor_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetActor(c)
	assert.False(t, ok)
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
}
