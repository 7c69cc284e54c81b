package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/rentnest/backend/internal/interfaces/http/handler"
	"github.com/rentnest/backend/internal/interfaces/http/middleware"
	"github.com/rentnest/backend/internal/interfaces/http/router"
)

type routeHandlers struct {
	auth         *handler.AuthHandler
	property     *handler.PropertyHandler
	saved        *handler.SavedHandler
	application  *handler.ApplicationHandler
	conversation *handler.ConversationHandler
	alert        *handler.AlertHandler
	agent        *handler.AgentHandler
	payment      *handler.PaymentHandler
	escrow       *handler.EscrowHandler
	admin        *handler.AdminHandler
	system       *handler.SystemHandler
}

type routeMiddleware struct {
	requireAuth  gin.HandlerFunc
	optionalAuth gin.HandlerFunc
	// streamAuth also accepts ?access_token= because EventSource cannot send headers
	streamAuth gin.HandlerFunc
	// authLimiter throttles credential endpoints; nil disables it
	authLimiter *middleware.RateLimiter
}

func (m routeMiddleware) credentials() []gin.HandlerFunc {
	if m.authLimiter == nil {
		return nil
	}
	return []gin.HandlerFunc{middleware.RateLimit(m.authLimiter)}
}

func with(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, mw...), h)
}

// registerRoutes mounts every API module on r. Public and authenticated
// routes of one module share a DomainGroup; auth runs per route.
func registerRoutes(r *router.Router, h routeHandlers, m routeMiddleware) {
	authed := m.requireAuth
	adminOnly := middleware.RequireRole(identity.RoleAdmin)

	// Identity
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", with(m.credentials(), h.auth.Register)...)
	authRoutes.POST("/login", with(m.credentials(), h.auth.Login)...)
	authRoutes.POST("/refresh", with(m.credentials(), h.auth.RefreshToken)...)
	authRoutes.POST("/logout", authed, h.auth.Logout)
	authRoutes.GET("/me", authed, h.auth.GetCurrentUser)
	authRoutes.PUT("/me", authed, h.auth.UpdateProfile)
	authRoutes.PUT("/password", authed, h.auth.ChangePassword)

	// Listings
	propertyRoutes := router.NewDomainGroup("properties", "/properties")
	propertyRoutes.GET("", m.optionalAuth, h.property.Search)
	propertyRoutes.GET("/mine", authed, h.property.Mine)
	propertyRoutes.GET("/:id", m.optionalAuth, h.property.GetByID)
	propertyRoutes.POST("", authed, h.property.Create)
	propertyRoutes.PUT("/:id", authed, h.property.Update)
	propertyRoutes.DELETE("/:id", authed, h.property.Delete)
	propertyRoutes.POST("/:id/images/upload-url", authed, h.property.CreateUploadURL)
	propertyRoutes.POST("/:id/images", authed, h.property.AddImage)
	propertyRoutes.DELETE("/:id/images", authed, h.property.RemoveImage)

	// Favorites
	savedRoutes := router.NewDomainGroup("saved", "/saved").Use(authed)
	savedRoutes.POST("", h.saved.Save)
	savedRoutes.GET("", h.saved.List)
	savedRoutes.DELETE("/:property_id", h.saved.Remove)

	// Leasing
	applicationRoutes := router.NewDomainGroup("applications", "/applications").Use(authed)
	applicationRoutes.POST("", h.application.Submit)
	applicationRoutes.GET("", h.application.List)
	applicationRoutes.GET("/:id", h.application.GetByID)
	applicationRoutes.PUT("/:id", h.application.Review)
	applicationRoutes.DELETE("/:id", h.application.Withdraw)

	// Messaging
	conversationRoutes := router.NewDomainGroup("conversations", "/conversations").Use(authed)
	conversationRoutes.POST("", h.conversation.Start)
	conversationRoutes.GET("", h.conversation.List)
	conversationRoutes.GET("/:id/messages", h.conversation.Messages)
	conversationRoutes.POST("/:id/messages", h.conversation.Send)
	conversationRoutes.PUT("/:id/read", h.conversation.MarkRead)

	messageRoutes := router.NewDomainGroup("messages", "/messages")
	messageRoutes.GET("/stream", m.streamAuth, h.conversation.Stream)

	// Search alerts
	alertRoutes := router.NewDomainGroup("alerts", "/alerts").Use(authed)
	alertRoutes.POST("", h.alert.Create)
	alertRoutes.GET("", h.alert.List)
	alertRoutes.GET("/:id", h.alert.GetByID)
	alertRoutes.PUT("/:id", h.alert.Update)
	alertRoutes.DELETE("/:id", h.alert.Delete)
	alertRoutes.GET("/:id/matches", h.alert.Matches)

	// Agents
	agentRoutes := router.NewDomainGroup("agents", "/agents")
	agentRoutes.GET("", h.agent.List)
	agentRoutes.POST("", authed, h.agent.Register)
	agentRoutes.GET("/assignments", authed, h.agent.ListAssignments)
	agentRoutes.POST("/assignments", authed, h.agent.Assign)
	agentRoutes.PUT("/assignments/:id", authed, h.agent.UpdatePermissions)
	agentRoutes.DELETE("/assignments/:id", authed, h.agent.Revoke)
	agentRoutes.GET("/:id", h.agent.GetByID)
	agentRoutes.PUT("/:id", authed, h.agent.Update)

	// Payments; webhooks are signed by the provider instead of a bearer token
	paymentRoutes := router.NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("/webhooks/:provider", h.payment.Webhook)
	paymentRoutes.POST("", authed, h.payment.Create)
	paymentRoutes.GET("", authed, h.payment.List)
	paymentRoutes.GET("/:id", authed, h.payment.GetByID)
	paymentRoutes.POST("/:id/sync", authed, h.payment.Sync)
	paymentRoutes.POST("/:id/refund", authed, h.payment.Refund)
	paymentRoutes.GET("/:id/receipt", authed, h.payment.Receipt)

	// Escrow; PUT /escrow takes the id in the body
	escrowRoutes := router.NewDomainGroup("escrow", "/escrow").Use(authed)
	escrowRoutes.GET("", h.escrow.List)
	escrowRoutes.POST("", h.escrow.Create)
	escrowRoutes.PUT("", h.escrow.Update)
	escrowRoutes.GET("/:id", h.escrow.GetByID)
	escrowRoutes.PUT("/:id", h.escrow.Update)

	// Administration
	adminRoutes := router.NewDomainGroup("admin", "/admin").Use(authed, adminOnly)
	adminRoutes.GET("/stats", h.admin.Stats)
	adminRoutes.GET("/users", h.admin.ListUsers)
	adminRoutes.PUT("/users/:id/role", h.admin.ChangeRole)
	adminRoutes.PUT("/properties/:id/status", h.property.ChangeStatus)
	adminRoutes.PUT("/agents/:id/verify", h.agent.Verify)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.system.GetSystemInfo)

	r.Register(
		authRoutes,
		propertyRoutes,
		savedRoutes,
		applicationRoutes,
		conversationRoutes,
		messageRoutes,
		alertRoutes,
		agentRoutes,
		paymentRoutes,
		escrowRoutes,
		adminRoutes,
		systemRoutes,
	)
}

func registerSwagger(engine *gin.Engine, cfg config.SwaggerConfig, authMiddleware gin.HandlerFunc) {
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg, authMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
}
