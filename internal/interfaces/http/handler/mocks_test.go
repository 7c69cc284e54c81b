package handler

import (
	"context"

	"github.com/google/uuid"
	adminapp "github.com/rentnest/backend/internal/application/admin"
	agentapp "github.com/rentnest/backend/internal/application/agent"
	alertapp "github.com/rentnest/backend/internal/application/alert"
	escrowapp "github.com/rentnest/backend/internal/application/escrow"
	favoriteapp "github.com/rentnest/backend/internal/application/favorite"
	appidentity "github.com/rentnest/backend/internal/application/identity"
	leasingapp "github.com/rentnest/backend/internal/application/leasing"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	messagingapp "github.com/rentnest/backend/internal/application/messaging"
	paymentapp "github.com/rentnest/backend/internal/application/payment"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// ptr returns argument i as *T, or nil when the mock was given nil
func ptr[T any](args mock.Arguments, i int) *T {
	if v := args.Get(i); v != nil {
		return v.(*T)
	}
	return nil
}

func slice[T any](args mock.Arguments, i int) []T {
	if v := args.Get(i); v != nil {
		return v.([]T)
	}
	return nil
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input appidentity.RegisterInput) (*appidentity.AuthResult, error) {
	args := m.Called(ctx, input)
	return ptr[appidentity.AuthResult](args, 0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.AuthResult, error) {
	args := m.Called(ctx, input)
	return ptr[appidentity.AuthResult](args, 0), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*appidentity.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	return ptr[appidentity.AuthResult](args, 0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, input appidentity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

// MockProfileService is a mock implementation of ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Me(ctx context.Context, userID uuid.UUID) (*appidentity.ProfileResult, error) {
	args := m.Called(ctx, userID)
	return ptr[appidentity.ProfileResult](args, 0), args.Error(1)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input appidentity.UpdateProfileInput) (*appidentity.ProfileResult, error) {
	args := m.Called(ctx, userID, input)
	return ptr[appidentity.ProfileResult](args, 0), args.Error(1)
}

func (m *MockProfileService) ChangePassword(ctx context.Context, userID uuid.UUID, input appidentity.ChangePasswordInput) error {
	return m.Called(ctx, userID, input).Error(0)
}

func (m *MockProfileService) ListUsers(ctx context.Context, input appidentity.ListUsersInput) (*shared.Paginated[appidentity.ProfileResult], error) {
	args := m.Called(ctx, input)
	return ptr[shared.Paginated[appidentity.ProfileResult]](args, 0), args.Error(1)
}

func (m *MockProfileService) ChangeRole(ctx context.Context, actor identity.Actor, userID uuid.UUID, role identity.Role) (*appidentity.ProfileResult, error) {
	args := m.Called(ctx, actor, userID, role)
	return ptr[appidentity.ProfileResult](args, 0), args.Error(1)
}

// MockPropertyService is a mock implementation of PropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Search(ctx context.Context, viewer *identity.Actor, filter listing.SearchFilter) (*shared.Paginated[listingapp.PropertyResult], error) {
	args := m.Called(ctx, viewer, filter)
	return ptr[shared.Paginated[listingapp.PropertyResult]](args, 0), args.Error(1)
}

func (m *MockPropertyService) Get(ctx context.Context, id uuid.UUID) (*listingapp.PropertyResult, error) {
	args := m.Called(ctx, id)
	return ptr[listingapp.PropertyResult](args, 0), args.Error(1)
}

func (m *MockPropertyService) Create(ctx context.Context, actor identity.Actor, input listingapp.PropertyInput) (*listingapp.PropertyResult, error) {
	args := m.Called(ctx, actor, input)
	return ptr[listingapp.PropertyResult](args, 0), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input listingapp.UpdatePropertyInput) (*listingapp.PropertyResult, error) {
	args := m.Called(ctx, actor, id, input)
	return ptr[listingapp.PropertyResult](args, 0), args.Error(1)
}

func (m *MockPropertyService) ChangeStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, status listing.PropertyStatus) (*listingapp.PropertyResult, error) {
	args := m.Called(ctx, actor, id, status)
	return ptr[listingapp.PropertyResult](args, 0), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockPropertyService) Mine(ctx context.Context, actor identity.Actor, page, pageSize int) (*shared.Paginated[listingapp.PropertyResult], error) {
	args := m.Called(ctx, actor, page, pageSize)
	return ptr[shared.Paginated[listingapp.PropertyResult]](args, 0), args.Error(1)
}

func (m *MockPropertyService) CreateUploadURL(ctx context.Context, actor identity.Actor, id uuid.UUID, input listingapp.UploadURLInput) (*listingapp.UploadURLResult, error) {
	args := m.Called(ctx, actor, id, input)
	return ptr[listingapp.UploadURLResult](args, 0), args.Error(1)
}

func (m *MockPropertyService) AddImage(ctx context.Context, actor identity.Actor, id uuid.UUID, storageKey string) (*listingapp.PropertyResult, error) {
	args := m.Called(ctx, actor, id, storageKey)
	return ptr[listingapp.PropertyResult](args, 0), args.Error(1)
}

func (m *MockPropertyService) RemoveImage(ctx context.Context, actor identity.Actor, id uuid.UUID, storageKey string) (*listingapp.PropertyResult, error) {
	args := m.Called(ctx, actor, id, storageKey)
	return ptr[listingapp.PropertyResult](args, 0), args.Error(1)
}

// MockSavedService is a mock implementation of SavedService
type MockSavedService struct {
	mock.Mock
}

func (m *MockSavedService) Save(ctx context.Context, userID, propertyID uuid.UUID) (*favoriteapp.SavedPropertyResult, error) {
	args := m.Called(ctx, userID, propertyID)
	return ptr[favoriteapp.SavedPropertyResult](args, 0), args.Error(1)
}

func (m *MockSavedService) List(ctx context.Context, userID uuid.UUID) ([]favoriteapp.SavedPropertyResult, error) {
	args := m.Called(ctx, userID)
	return slice[favoriteapp.SavedPropertyResult](args, 0), args.Error(1)
}

func (m *MockSavedService) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	return m.Called(ctx, userID, propertyID).Error(0)
}

// MockApplicationService is a mock implementation of ApplicationService
type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) Submit(ctx context.Context, actor identity.Actor, input leasingapp.SubmitInput) (*leasingapp.ApplicationResult, error) {
	args := m.Called(ctx, actor, input)
	return ptr[leasingapp.ApplicationResult](args, 0), args.Error(1)
}

func (m *MockApplicationService) List(ctx context.Context, actor identity.Actor, input leasingapp.ListInput) (*shared.Paginated[leasingapp.ApplicationResult], error) {
	args := m.Called(ctx, actor, input)
	return ptr[shared.Paginated[leasingapp.ApplicationResult]](args, 0), args.Error(1)
}

func (m *MockApplicationService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*leasingapp.ApplicationResult, error) {
	args := m.Called(ctx, actor, id)
	return ptr[leasingapp.ApplicationResult](args, 0), args.Error(1)
}

func (m *MockApplicationService) Review(ctx context.Context, actor identity.Actor, id uuid.UUID, input leasingapp.ReviewInput) (*leasingapp.ApplicationResult, error) {
	args := m.Called(ctx, actor, id, input)
	return ptr[leasingapp.ApplicationResult](args, 0), args.Error(1)
}

func (m *MockApplicationService) Withdraw(ctx context.Context, actor identity.Actor, id uuid.UUID) (*leasingapp.ApplicationResult, error) {
	args := m.Called(ctx, actor, id)
	return ptr[leasingapp.ApplicationResult](args, 0), args.Error(1)
}

// MockMessagingService is a mock implementation of MessagingService
type MockMessagingService struct {
	mock.Mock
}

func (m *MockMessagingService) Start(ctx context.Context, actor identity.Actor, input messagingapp.StartInput) (*messagingapp.ConversationResult, bool, error) {
	args := m.Called(ctx, actor, input)
	return ptr[messagingapp.ConversationResult](args, 0), args.Bool(1), args.Error(2)
}

func (m *MockMessagingService) List(ctx context.Context, actor identity.Actor) ([]messagingapp.ConversationResult, error) {
	args := m.Called(ctx, actor)
	return slice[messagingapp.ConversationResult](args, 0), args.Error(1)
}

func (m *MockMessagingService) Messages(ctx context.Context, actor identity.Actor, conversationID uuid.UUID, page, pageSize int) (*shared.Paginated[messagingapp.MessageResult], error) {
	args := m.Called(ctx, actor, conversationID, page, pageSize)
	return ptr[shared.Paginated[messagingapp.MessageResult]](args, 0), args.Error(1)
}

func (m *MockMessagingService) Send(ctx context.Context, actor identity.Actor, conversationID uuid.UUID, body string) (*messagingapp.MessageResult, error) {
	args := m.Called(ctx, actor, conversationID, body)
	return ptr[messagingapp.MessageResult](args, 0), args.Error(1)
}

func (m *MockMessagingService) MarkRead(ctx context.Context, actor identity.Actor, conversationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, actor, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessagingService) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan messaging.Notification, func(), error) {
	args := m.Called(ctx, userID)
	var ch <-chan messaging.Notification
	if v := args.Get(0); v != nil {
		ch = v.(chan messaging.Notification)
	}
	var cancel func()
	if v := args.Get(1); v != nil {
		cancel = v.(func())
	}
	return ch, cancel, args.Error(2)
}

// MockAlertService is a mock implementation of AlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) Create(ctx context.Context, userID uuid.UUID, input alertapp.AlertInput) (*alertapp.AlertResult, error) {
	args := m.Called(ctx, userID, input)
	return ptr[alertapp.AlertResult](args, 0), args.Error(1)
}

func (m *MockAlertService) List(ctx context.Context, userID uuid.UUID) ([]alertapp.AlertResult, error) {
	args := m.Called(ctx, userID)
	return slice[alertapp.AlertResult](args, 0), args.Error(1)
}

func (m *MockAlertService) Get(ctx context.Context, userID, id uuid.UUID) (*alertapp.AlertResult, error) {
	args := m.Called(ctx, userID, id)
	return ptr[alertapp.AlertResult](args, 0), args.Error(1)
}

func (m *MockAlertService) Update(ctx context.Context, userID, id uuid.UUID, input alertapp.AlertInput) (*alertapp.AlertResult, error) {
	args := m.Called(ctx, userID, id, input)
	return ptr[alertapp.AlertResult](args, 0), args.Error(1)
}

func (m *MockAlertService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockAlertService) Matches(ctx context.Context, userID, id uuid.UUID, page, pageSize int) (*shared.Paginated[listingapp.PropertyResult], error) {
	args := m.Called(ctx, userID, id, page, pageSize)
	return ptr[shared.Paginated[listingapp.PropertyResult]](args, 0), args.Error(1)
}

// MockAgentService is a mock implementation of AgentService
type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) Register(ctx context.Context, actor identity.Actor, input agentapp.AgentInput) (*agentapp.AgentResult, error) {
	args := m.Called(ctx, actor, input)
	return ptr[agentapp.AgentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) List(ctx context.Context, input agentapp.ListInput) (*shared.Paginated[agentapp.AgentResult], error) {
	args := m.Called(ctx, input)
	return ptr[shared.Paginated[agentapp.AgentResult]](args, 0), args.Error(1)
}

func (m *MockAgentService) Get(ctx context.Context, id uuid.UUID) (*agentapp.AgentResult, error) {
	args := m.Called(ctx, id)
	return ptr[agentapp.AgentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input agentapp.AgentInput) (*agentapp.AgentResult, error) {
	args := m.Called(ctx, actor, id, input)
	return ptr[agentapp.AgentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) Verify(ctx context.Context, actor identity.Actor, id uuid.UUID, verified bool) (*agentapp.AgentResult, error) {
	args := m.Called(ctx, actor, id, verified)
	return ptr[agentapp.AgentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) Assign(ctx context.Context, actor identity.Actor, input agentapp.AssignInput) (*agentapp.AssignmentResult, error) {
	args := m.Called(ctx, actor, input)
	return ptr[agentapp.AssignmentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) ListAssignments(ctx context.Context, actor identity.Actor) ([]agentapp.AssignmentResult, error) {
	args := m.Called(ctx, actor)
	return slice[agentapp.AssignmentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) UpdatePermissions(ctx context.Context, actor identity.Actor, id uuid.UUID, perms agent.Permissions) (*agentapp.AssignmentResult, error) {
	args := m.Called(ctx, actor, id, perms)
	return ptr[agentapp.AssignmentResult](args, 0), args.Error(1)
}

func (m *MockAgentService) Revoke(ctx context.Context, actor identity.Actor, id uuid.UUID) (*agentapp.AssignmentResult, error) {
	args := m.Called(ctx, actor, id)
	return ptr[agentapp.AssignmentResult](args, 0), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, actor identity.Actor, input paymentapp.CreateInput) (*paymentapp.PaymentResult, bool, error) {
	args := m.Called(ctx, actor, input)
	return ptr[paymentapp.PaymentResult](args, 0), args.Bool(1), args.Error(2)
}

func (m *MockPaymentService) List(ctx context.Context, actor identity.Actor, input paymentapp.ListInput) (*shared.Paginated[paymentapp.PaymentResult], error) {
	args := m.Called(ctx, actor, input)
	return ptr[shared.Paginated[paymentapp.PaymentResult]](args, 0), args.Error(1)
}

func (m *MockPaymentService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*paymentapp.PaymentResult, error) {
	args := m.Called(ctx, actor, id)
	return ptr[paymentapp.PaymentResult](args, 0), args.Error(1)
}

func (m *MockPaymentService) Sync(ctx context.Context, actor identity.Actor, id uuid.UUID) (*paymentapp.PaymentResult, error) {
	args := m.Called(ctx, actor, id)
	return ptr[paymentapp.PaymentResult](args, 0), args.Error(1)
}

func (m *MockPaymentService) Refund(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*paymentapp.PaymentResult, error) {
	args := m.Called(ctx, actor, id, reason)
	return ptr[paymentapp.PaymentResult](args, 0), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, provider string, payload []byte, headers map[string]string) error {
	return m.Called(ctx, provider, payload, headers).Error(0)
}

func (m *MockPaymentService) Receipt(ctx context.Context, actor identity.Actor, id uuid.UUID) (*paymentapp.ReceiptFile, error) {
	args := m.Called(ctx, actor, id)
	return ptr[paymentapp.ReceiptFile](args, 0), args.Error(1)
}

// MockEscrowService is a mock implementation of EscrowService
type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) List(ctx context.Context, actor identity.Actor, input escrowapp.ListInput) (*shared.Paginated[escrowapp.EscrowResult], error) {
	args := m.Called(ctx, actor, input)
	return ptr[shared.Paginated[escrowapp.EscrowResult]](args, 0), args.Error(1)
}

func (m *MockEscrowService) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*escrowapp.EscrowResult, error) {
	args := m.Called(ctx, actor, id)
	return ptr[escrowapp.EscrowResult](args, 0), args.Error(1)
}

func (m *MockEscrowService) Create(ctx context.Context, actor identity.Actor, input escrowapp.CreateInput) (*escrowapp.EscrowResult, error) {
	args := m.Called(ctx, actor, input)
	return ptr[escrowapp.EscrowResult](args, 0), args.Error(1)
}

func (m *MockEscrowService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, action payment.EscrowAction, reason string) (*escrowapp.EscrowResult, error) {
	args := m.Called(ctx, actor, id, action, reason)
	return ptr[escrowapp.EscrowResult](args, 0), args.Error(1)
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Stats(ctx context.Context) (*adminapp.StatsResult, error) {
	args := m.Called(ctx)
	return ptr[adminapp.StatsResult](args, 0), args.Error(1)
}

var (
	_ AuthService        = (*MockAuthService)(nil)
	_ ProfileService     = (*MockProfileService)(nil)
	_ PropertyService    = (*MockPropertyService)(nil)
	_ SavedService       = (*MockSavedService)(nil)
	_ ApplicationService = (*MockApplicationService)(nil)
	_ MessagingService   = (*MockMessagingService)(nil)
	_ AlertService       = (*MockAlertService)(nil)
	_ AgentService       = (*MockAgentService)(nil)
	_ PaymentService     = (*MockPaymentService)(nil)
	_ EscrowService      = (*MockEscrowService)(nil)
	_ StatsService       = (*MockStatsService)(nil)
)
