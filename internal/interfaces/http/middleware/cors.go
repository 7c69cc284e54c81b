package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig lists the origins the browser app is served from plus the
// headers a preflight may negotiate. An empty AllowOrigins disables CORS.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Authorization", "Content-Type", "Accept", "Origin",
			RequestIDHeader, "Idempotency-Key", "Last-Event-ID", "Cache-Control",
		},
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// corsPolicy is CORSConfig with the header values joined once
type corsPolicy struct {
	any         bool
	origins     map[string]struct{}
	credentials bool
	shared      [][2]string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{}, len(cfg.AllowOrigins)), credentials: cfg.AllowCredentials}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.any = true
		}
		p.origins[o] = struct{}{}
	}
	p.shared = append(p.shared,
		[2]string{"Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", ")},
		[2]string{"Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", ")},
	)
	if len(cfg.ExposeHeaders) > 0 {
		p.shared = append(p.shared, [2]string{"Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", ")})
	}
	if secs := int(cfg.MaxAge / time.Second); secs > 0 {
		p.shared = append(p.shared, [2]string{"Access-Control-Max-Age", strconv.Itoa(secs)})
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value, or "" to send none
func (p corsPolicy) allowOrigin(origin string) string {
	switch {
	case p.any:
		return "*"
	case origin == "":
		return ""
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORSWithConfig answers preflights itself with 204 whether or not the origin
// is allowed; disallowed origins just get no Access-Control headers.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
				if policy.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
			for _, kv := range policy.shared {
				h.Set(kv[0], kv[1])
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
