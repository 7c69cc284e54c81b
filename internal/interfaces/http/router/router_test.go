package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func echo(c *gin.Context) {
	c.String(http.StatusOK, c.Request.Method+" "+c.FullPath())
}

func header(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(name, "1")
		c.Next()
	}
}

func TestRouter(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", echo)

	properties := NewDomainGroup("properties", "/properties")
	properties.GET("", echo).GET("/:id", echo).POST("", echo)

	escrow := NewDomainGroup("escrow", "/escrow").Use(header("X-Authed"))
	escrow.PUT("/:id", echo).PATCH("/:id", echo).DELETE("/:id", echo).Handle(http.MethodHead, "/:id", echo)

	r := NewRouter(engine).Use(header("X-Api"))
	api := r.Register(properties).Register(escrow).Setup()
	assert.Equal(t, DefaultBasePath, api.BasePath())
	assert.Equal(t, "escrow", escrow.Name())

	tests := []struct {
		method, target string
		wantBody       string
		wantAPI        bool
		wantAuthed     bool
	}{
		{http.MethodGet, "/api/properties", "GET /api/properties", true, false},
		{http.MethodGet, "/api/properties/p-1", "GET /api/properties/:id", true, false},
		{http.MethodPost, "/api/properties", "POST /api/properties", true, false},
		{http.MethodPut, "/api/escrow/e-1", "PUT /api/escrow/:id", true, true},
		{http.MethodPatch, "/api/escrow/e-1", "PATCH /api/escrow/:id", true, true},
		{http.MethodDelete, "/api/escrow/e-1", "DELETE /api/escrow/:id", true, true},
		{http.MethodGet, "/health", "GET /health", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantAPI, w.Header().Get("X-Api") != "")
			assert.Equal(t, tt.wantAuthed, w.Header().Get("X-Authed") != "")
		})
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/escrow/e-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithBasePath(t *testing.T) {
	assert.Equal(t, "/api", NewRouter(gin.New()).Prefix())
	assert.Equal(t, "/public/v1", NewRouter(gin.New(), WithBasePath("public/v1")).Prefix())
	assert.Equal(t, "/internal", NewRouter(gin.New(), WithBasePath("/internal/")).Prefix())

	engine := gin.New()
	g := NewDomainGroup("system", "/system")
	g.GET("/info", echo)
	NewRouter(engine, WithBasePath("v2")).Register(g).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v2/system/info", nil))
	assert.Equal(t, "GET /v2/system/info", w.Body.String())
}
