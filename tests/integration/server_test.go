package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentnest/backend/internal/application/access"
	agentapp "github.com/rentnest/backend/internal/application/agent"
	alertapp "github.com/rentnest/backend/internal/application/alert"
	escrowapp "github.com/rentnest/backend/internal/application/escrow"
	favoriteapp "github.com/rentnest/backend/internal/application/favorite"
	identityapp "github.com/rentnest/backend/internal/application/identity"
	leasingapp "github.com/rentnest/backend/internal/application/leasing"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	messagingapp "github.com/rentnest/backend/internal/application/messaging"
	paymentapp "github.com/rentnest/backend/internal/application/payment"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/auth"
	"github.com/rentnest/backend/internal/infrastructure/cache"
	"github.com/rentnest/backend/internal/infrastructure/config"
	"github.com/rentnest/backend/internal/infrastructure/event"
	"github.com/rentnest/backend/internal/infrastructure/persistence"
	paymentinfra "github.com/rentnest/backend/internal/infrastructure/payment"
	"github.com/rentnest/backend/internal/infrastructure/realtime"
	"github.com/rentnest/backend/internal/infrastructure/storage"
	"github.com/rentnest/backend/internal/interfaces/http/handler"
	"github.com/rentnest/backend/internal/interfaces/http/middleware"
	"github.com/rentnest/backend/tests/testutil"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// recordingNotifier keeps every alert match notice it receives
type recordingNotifier struct {
	mu      sync.Mutex
	notices []alert.MatchNotice
}

func (n *recordingNotifier) NotifyMatch(_ context.Context, notice alert.MatchNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

// scriptedGateway stands in for Stripe. Webhooks are JSON bodies of
// {"id","payment_id","status"} signed with the X-Test-Signature header.
type scriptedGateway struct{}

const testWebhookSignature = "signed-for-tests"

func (scriptedGateway) Provider() payment.Provider { return payment.ProviderStripe }

func (scriptedGateway) CreateIntent(_ context.Context, req *payment.CreateIntentRequest) (*payment.CreateIntentResponse, error) {
	return &payment.CreateIntentResponse{
		ProviderPaymentID: "pi_" + req.Reference,
		ClientSecret:      "secret_" + req.Reference,
		Status:            payment.GatewayStatusPending,
	}, nil
}

func (scriptedGateway) Query(_ context.Context, providerPaymentID string) (*payment.QueryResponse, error) {
	return &payment.QueryResponse{ProviderPaymentID: providerPaymentID, Status: payment.GatewayStatusPending}, nil
}

func (scriptedGateway) Refund(_ context.Context, req *payment.RefundRequest) (*payment.RefundResponse, error) {
	return &payment.RefundResponse{ProviderRefundID: "re_" + req.ProviderPaymentID, Succeeded: true}, nil
}

func (scriptedGateway) VerifyWebhook(_ context.Context, payload []byte, headers map[string]string) (*payment.WebhookEvent, error) {
	if headers["X-Test-Signature"] != testWebhookSignature {
		return nil, payment.ErrGatewayInvalidCallback
	}
	var body struct {
		ID        string `json:"id"`
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, payment.ErrGatewayInvalidCallback
	}
	return &payment.WebhookEvent{
		Provider:          payment.ProviderStripe,
		EventID:           body.ID,
		ProviderPaymentID: "pi_" + body.PaymentID,
		Reference:         body.PaymentID,
		Status:            payment.GatewayStatus(body.Status),
		OccurredAt:        time.Now(),
	}, nil
}

// APITestServer is the full HTTP stack over a containerised database
type APITestServer struct {
	DB       *TestDB
	Engine   *gin.Engine
	Notifier *recordingNotifier
}

// NewAPITestServer wires repositories, services and handlers the way the
// server binary does, with in-process stand-ins for Redis, S3, SMTP and Stripe.
func NewAPITestServer(t *testing.T) *APITestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	testDB := NewTestDB(t)
	db := testDB.DB
	log := zap.NewNop()

	profileRepo := persistence.NewGormProfileRepository(db)
	propertyRepo := persistence.NewGormPropertyRepository(db)
	savedRepo := persistence.NewGormSavedPropertyRepository(db)
	applicationRepo := persistence.NewGormApplicationRepository(db)
	conversationRepo := persistence.NewGormConversationRepository(db)
	messageRepo := persistence.NewGormMessageRepository(db)
	alertRepo := persistence.NewGormSearchAlertRepository(db)
	agentRepo := persistence.NewGormAgentRepository(db)
	assignmentRepo := persistence.NewGormAssignmentRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	escrowRepo := persistence.NewGormEscrowRepository(db)

	bus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	idempotency := cache.NewInMemoryIdempotencyStore()
	blacklist := auth.NewInMemoryTokenBlacklist()
	jwtConfig := config.JWTConfig{
		Secret:                 "integration-access-secret-0123456789abcdef",
		RefreshSecret:          "integration-refresh-secret-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "rentnest-test",
	}
	jwtService := auth.NewJWTService(jwtConfig)
	checker := access.NewChecker(assignmentRepo)
	broker := realtime.NewInMemoryBroker(16, log)
	notifier := &recordingNotifier{}

	authService := identityapp.NewAuthService(profileRepo, jwtService, blacklist, bus, log)
	profileService := identityapp.NewProfileService(profileRepo, blacklist, jwtConfig.RefreshTokenExpiration, log)
	propertyService := listingapp.NewPropertyService(propertyRepo, checker, storage.NewStubImageStorage("http://images.test"), bus, log)
	savedService := favoriteapp.NewService(savedRepo, propertyRepo, log)
	applicationService := leasingapp.NewService(applicationRepo, propertyRepo, checker, bus, log)
	messagingService := messagingapp.NewService(conversationRepo, messageRepo, profileRepo, propertyRepo, broker, log)
	alertService := alertapp.NewService(alertRepo, propertyRepo, log)
	matchHandler := alertapp.NewMatchHandler(alertRepo, profileRepo, notifier, log)
	bus.Subscribe(event.NewIdempotentHandler(matchHandler, idempotency, log))
	agentService := agentapp.NewService(agentRepo, assignmentRepo, profileRepo, propertyRepo, log)
	paymentService := paymentapp.NewService(
		paymentRepo, escrowRepo, propertyRepo, profileRepo,
		paymentinfra.NewRegistry(scriptedGateway{}), idempotency, nil, bus,
		paymentapp.Options{ReturnURL: "http://app.test/done", CancelURL: "http://app.test/cancel"},
		log,
	)
	escrowService := escrowapp.NewService(escrowRepo, propertyRepo, log)

	authHandler := handler.NewAuthHandler(authService, profileService)
	propertyHandler := handler.NewPropertyHandler(propertyService)
	savedHandler := handler.NewSavedHandler(savedService)
	applicationHandler := handler.NewApplicationHandler(applicationService)
	conversationHandler := handler.NewConversationHandler(messagingService)
	alertHandler := handler.NewAlertHandler(alertService)
	agentHandler := handler.NewAgentHandler(agentService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	escrowHandler := handler.NewEscrowHandler(escrowService)

	requireAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{Validator: authService})
	optionalAuth := middleware.OptionalJWTAuthMiddleware(authService)

	engine := gin.New()
	engine.Use(middleware.RequestID(), gin.Recovery())
	api := engine.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.RefreshToken)
	authGroup.POST("/logout", requireAuth, authHandler.Logout)
	authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)

	properties := api.Group("/properties")
	properties.GET("", optionalAuth, propertyHandler.Search)
	properties.GET("/:id", optionalAuth, propertyHandler.GetByID)
	properties.POST("", requireAuth, propertyHandler.Create)
	properties.PUT("/:id", requireAuth, propertyHandler.Update)

	saved := api.Group("/saved", requireAuth)
	saved.POST("", savedHandler.Save)
	saved.GET("", savedHandler.List)
	saved.DELETE("/:property_id", savedHandler.Remove)

	applications := api.Group("/applications", requireAuth)
	applications.POST("", applicationHandler.Submit)
	applications.GET("", applicationHandler.List)
	applications.PUT("/:id", applicationHandler.Review)

	conversations := api.Group("/conversations", requireAuth)
	conversations.POST("", conversationHandler.Start)
	conversations.GET("", conversationHandler.List)
	conversations.GET("/:id/messages", conversationHandler.Messages)
	conversations.POST("/:id/messages", conversationHandler.Send)

	alerts := api.Group("/alerts", requireAuth)
	alerts.POST("", alertHandler.Create)
	alerts.GET("/:id/matches", alertHandler.Matches)

	agents := api.Group("/agents")
	agents.GET("", agentHandler.List)
	agents.POST("", requireAuth, agentHandler.Register)

	payments := api.Group("/payments")
	payments.POST("/webhooks/:provider", paymentHandler.Webhook)
	payments.POST("", requireAuth, paymentHandler.Create)
	payments.GET("/:id", requireAuth, paymentHandler.GetByID)

	escrow := api.Group("/escrow", requireAuth)
	escrow.GET("", escrowHandler.List)
	escrow.PUT("", escrowHandler.Update)
	escrow.GET("/:id", escrowHandler.GetByID)

	return &APITestServer{DB: testDB, Engine: engine, Notifier: notifier}
}

// Do performs a JSON request with an optional bearer token
func (s *APITestServer) Do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.DoWithHeaders(t, method, path, token, body, nil)
}

// DoWithHeaders is Do with extra request headers
func (s *APITestServer) DoWithHeaders(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, testutil.ToJSONReader(t, body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	return w
}

// testUser is a registered account and its access token
type testUser struct {
	ID           uuid.UUID
	Email        string
	AccessToken  string
	RefreshToken string
}

// Register signs up a user through the API
func (s *APITestServer) Register(t *testing.T, email string, role identity.Role) testUser {
	t.Helper()

	w := s.Do(t, http.MethodPost, "/api/auth/register", "", handler.RegisterRequest{
		Email:    email,
		Password: "correct-horse-battery",
		FullName: "Test " + string(role),
		Role:     string(role),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	res := testutil.DataAs[handler.AuthResponse](t, w.Body.Bytes())
	return testUser{
		ID:           res.User.ID,
		Email:        email,
		AccessToken:  res.Token.AccessToken,
		RefreshToken: res.Token.RefreshToken,
	}
}
