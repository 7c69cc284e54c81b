package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockPropertyRepository is a mock implementation of listing.PropertyRepository
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *listing.Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPropertyRepository) Update(ctx context.Context, p *listing.Property) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]listing.Property, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]listing.Property), args.Error(1)
}

func (m *MockPropertyRepository) Search(ctx context.Context, filter listing.SearchFilter) ([]listing.Property, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]listing.Property), args.Get(1).(int64), args.Error(2)
}

func (m *MockPropertyRepository) OwnerIDsOf(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]uuid.UUID), args.Error(1)
}

func (m *MockPropertyRepository) CountByStatus(ctx context.Context) (map[listing.PropertyStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[listing.PropertyStatus]int64), args.Error(1)
}

// MockImageStorage is a mock implementation of ImageStorage
type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockImageStorage) PublicURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockImageStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockImageStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

type fakeAssignments struct {
	agent.AssignmentRepository
	byAgent map[uuid.UUID][]agent.AgentAssignment
}

func (f *fakeAssignments) FindActiveByAgent(_ context.Context, agentID uuid.UUID) ([]agent.AgentAssignment, error) {
	return f.byAgent[agentID], nil
}
