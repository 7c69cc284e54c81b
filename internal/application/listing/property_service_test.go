package listing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/application/access"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	repo        *MockPropertyRepository
	images      *MockImageStorage
	events      *MockEventPublisher
	assignments *fakeAssignments
	svc         *PropertyService
}

func newFixture() *fixture {
	f := &fixture{
		repo:        new(MockPropertyRepository),
		images:      new(MockImageStorage),
		events:      new(MockEventPublisher),
		assignments: &fakeAssignments{byAgent: map[uuid.UUID][]agent.AgentAssignment{}},
	}
	f.svc = NewPropertyService(f.repo, access.NewChecker(f.assignments), f.images, f.events, zap.NewNop())
	return f
}

func validInput() PropertyInput {
	return PropertyInput{
		Title:        "Sunny two-bed",
		PropertyType: listing.PropertyTypeApartment,
		Price:        decimal.NewFromInt(1800),
		Bedrooms:     2,
		Bathrooms:    1,
		Address:      "12 Elm St",
		City:         "Portland",
		State:        "OR",
	}
}

func newProperty(t *testing.T, owner uuid.UUID) *listing.Property {
	t.Helper()
	p, err := listing.NewProperty(owner, validInput().details())
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func landlord() identity.Actor {
	return identity.Actor{ID: uuid.New(), Role: identity.RoleLandlord}
}

func hasListedEvent(events []shared.DomainEvent) bool {
	for _, e := range events {
		if e.EventType() == listing.EventTypePropertyListed {
			return true
		}
	}
	return false
}

func TestPropertyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("landlord lists a property", func(t *testing.T) {
		f := newFixture()
		actor := landlord()
		f.repo.On("Create", ctx, mock.AnythingOfType("*listing.Property")).Return(nil)
		f.events.On("Publish", ctx, mock.MatchedBy(hasListedEvent)).Return(nil)

		result, err := f.svc.Create(ctx, actor, validInput())

		require.NoError(t, err)
		assert.Equal(t, actor.ID, result.OwnerID)
		assert.Equal(t, listing.PropertyStatusAvailable, result.Status)
		assert.Equal(t, "USD", result.Currency)
		assert.Empty(t, result.Images)
		f.repo.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("renter is forbidden", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Create(ctx, identity.Actor{ID: uuid.New(), Role: identity.RoleRenter}, validInput())
		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing title", func(t *testing.T) {
		f := newFixture()
		in := validInput()
		in.Title = "  "
		_, err := f.svc.Create(ctx, landlord(), in)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", ctx, mock.Anything).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(errors.New("bus stopped"))

		_, err := f.svc.Create(ctx, landlord(), validInput())
		assert.NoError(t, err)
	})
}

func TestPropertyService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous search defaults to available", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Search", ctx, mock.MatchedBy(func(sf listing.SearchFilter) bool {
			return sf.Status != nil && *sf.Status == listing.PropertyStatusAvailable &&
				sf.Page == 1 && sf.PageSize == 20
		})).Return([]listing.Property{*newProperty(t, uuid.New())}, int64(1), nil)

		page, err := f.svc.Search(ctx, nil, listing.SearchFilter{})

		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, 1, page.TotalPages)
	})

	t.Run("owner browsing own listings sees every status", func(t *testing.T) {
		f := newFixture()
		actor := landlord()
		f.repo.On("Search", ctx, mock.MatchedBy(func(sf listing.SearchFilter) bool {
			return sf.Status == nil
		})).Return([]listing.Property{}, int64(0), nil)

		_, err := f.svc.Search(ctx, &actor, listing.SearchFilter{OwnerID: &actor.ID})
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("page size is capped", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Search", ctx, mock.MatchedBy(func(sf listing.SearchFilter) bool {
			return sf.PageSize == 100
		})).Return([]listing.Property{}, int64(0), nil)

		_, err := f.svc.Search(ctx, nil, listing.SearchFilter{PageSize: 500})
		require.NoError(t, err)
	})

	t.Run("invalid ranges", func(t *testing.T) {
		f := newFixture()
		lo, hi := decimal.NewFromInt(2000), decimal.NewFromInt(1000)
		_, err := f.svc.Search(ctx, nil, listing.SearchFilter{Criteria: listing.Criteria{MinPrice: &lo, MaxPrice: &hi}})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		three, one := 3, 1
		_, err = f.svc.Search(ctx, nil, listing.SearchFilter{Criteria: listing.Criteria{MinBedrooms: &three}, MaxBedrooms: &one})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		bogus := listing.PropertyStatus("sold")
		_, err = f.svc.Search(ctx, nil, listing.SearchFilter{Status: &bogus})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestPropertyService_Get_NotFound(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Get(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPropertyService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edits and relists", func(t *testing.T) {
		f := newFixture()
		actor := landlord()
		p := newProperty(t, actor.ID)
		p.Status = listing.PropertyStatusInactive
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Update", ctx, p).Return(nil)
		f.events.On("Publish", ctx, mock.MatchedBy(hasListedEvent)).Return(nil)

		in := UpdatePropertyInput{PropertyInput: validInput()}
		in.Price = decimal.NewFromInt(1950)
		available := listing.PropertyStatusAvailable
		in.Status = &available

		result, err := f.svc.Update(ctx, actor, p.ID, in)

		require.NoError(t, err)
		assert.True(t, result.Price.Equal(decimal.NewFromInt(1950)))
		assert.Equal(t, listing.PropertyStatusAvailable, result.Status)
		f.events.AssertExpectations(t)
	})

	t.Run("edit without status change publishes nothing", func(t *testing.T) {
		f := newFixture()
		actor := landlord()
		p := newProperty(t, actor.ID)
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Update", ctx, p).Return(nil)

		_, err := f.svc.Update(ctx, actor, p.ID, UpdatePropertyInput{PropertyInput: validInput()})
		require.NoError(t, err)
		f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("agent with edit permission", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		p := newProperty(t, owner)
		agentActor := identity.Actor{ID: uuid.New(), Role: identity.RoleAgent}
		a, err := agent.NewAssignment(agentActor.ID, owner, nil, agent.Permissions{CanEditListings: true})
		require.NoError(t, err)
		f.assignments.byAgent[agentActor.ID] = []agent.AgentAssignment{*a}
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Update", ctx, p).Return(nil)

		_, err = f.svc.Update(ctx, agentActor, p.ID, UpdatePropertyInput{PropertyInput: validInput()})
		assert.NoError(t, err)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, uuid.New())
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)

		_, err := f.svc.Update(ctx, landlord(), p.ID, UpdatePropertyInput{PropertyInput: validInput()})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestPropertyService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes and images are cleaned up", func(t *testing.T) {
		f := newFixture()
		actor := landlord()
		p := newProperty(t, actor.ID)
		p.Images = []listing.PropertyImage{{Key: "a.jpg", URL: "u1"}, {Key: "b.jpg", URL: "u2"}}
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Delete", ctx, p.ID).Return(nil)
		f.images.On("DeleteObject", ctx, "a.jpg").Return(errors.New("s3 down"))
		f.images.On("DeleteObject", ctx, "b.jpg").Return(nil)

		require.NoError(t, f.svc.Delete(ctx, actor, p.ID))
		f.images.AssertExpectations(t)
	})

	t.Run("agent cannot delete", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, uuid.New())
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)

		err := f.svc.Delete(ctx, identity.Actor{ID: uuid.New(), Role: identity.RoleAgent}, p.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("admin deletes", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, uuid.New())
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Delete", ctx, p.ID).Return(nil)

		assert.NoError(t, f.svc.Delete(ctx, identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}, p.ID))
	})
}

func TestPropertyService_Mine(t *testing.T) {
	ctx := context.Background()

	t.Run("landlord sees own listings", func(t *testing.T) {
		f := newFixture()
		actor := landlord()
		f.repo.On("Search", ctx, mock.MatchedBy(func(sf listing.SearchFilter) bool {
			return sf.OwnerID != nil && *sf.OwnerID == actor.ID && sf.Status == nil
		})).Return([]listing.Property{}, int64(0), nil)

		_, err := f.svc.Mine(ctx, actor, 0, 0)
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("agent sees assigned scope", func(t *testing.T) {
		f := newFixture()
		agentActor := identity.Actor{ID: uuid.New(), Role: identity.RoleAgent}
		landlordID := uuid.New()
		a, err := agent.NewAssignment(agentActor.ID, landlordID, nil, agent.Permissions{})
		require.NoError(t, err)
		f.assignments.byAgent[agentActor.ID] = []agent.AgentAssignment{*a}
		f.repo.On("Search", ctx, mock.MatchedBy(func(sf listing.SearchFilter) bool {
			return sf.Scope != nil && len(sf.Scope.OwnerIDs) == 1 && sf.Scope.OwnerIDs[0] == landlordID
		})).Return([]listing.Property{}, int64(0), nil)

		_, err = f.svc.Mine(ctx, agentActor, 1, 10)
		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("agent without assignments gets an empty page", func(t *testing.T) {
		f := newFixture()
		page, err := f.svc.Mine(ctx, identity.Actor{ID: uuid.New(), Role: identity.RoleAgent}, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		f.repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}

func TestPropertyService_Images(t *testing.T) {
	ctx := context.Background()
	actor := landlord()

	t.Run("upload url", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, actor.ID)
		expires := time.Now().Add(15 * time.Minute)
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.images.On("GenerateUploadURL", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "properties/"+p.ID.String()+"/") && strings.HasSuffix(key, ".png")
		}), "image/png", uploadURLExpiry).Return("https://s3/put", expires, nil)

		result, err := f.svc.CreateUploadURL(ctx, actor, p.ID, UploadURLInput{FileName: "a.png", ContentType: "image/PNG"})

		require.NoError(t, err)
		assert.Equal(t, "https://s3/put", result.UploadURL)
		assert.Equal(t, expires, result.ExpiresAt)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.CreateUploadURL(ctx, actor, uuid.New(), UploadURLInput{ContentType: "application/pdf"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("confirm uploaded image", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, actor.ID)
		key := imagePrefix(p.ID) + "x.jpg"
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.images.On("ObjectExists", ctx, key).Return(true, nil)
		f.images.On("PublicURL", ctx, key).Return("https://cdn/x.jpg", nil)
		f.repo.On("Update", ctx, p).Return(nil)

		result, err := f.svc.AddImage(ctx, actor, p.ID, key)

		require.NoError(t, err)
		require.Len(t, result.Images, 1)
		assert.Equal(t, "https://cdn/x.jpg", result.Images[0].URL)
	})

	t.Run("confirm rejects missing object and foreign key", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, actor.ID)
		key := imagePrefix(p.ID) + "gone.jpg"
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.images.On("ObjectExists", ctx, key).Return(false, nil)

		_, err := f.svc.AddImage(ctx, actor, p.ID, key)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = f.svc.AddImage(ctx, actor, p.ID, imagePrefix(uuid.New())+"x.jpg")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("remove image", func(t *testing.T) {
		f := newFixture()
		p := newProperty(t, actor.ID)
		p.Images = []listing.PropertyImage{{Key: "k1", URL: "u1"}}
		f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
		f.repo.On("Update", ctx, p).Return(nil)
		f.images.On("DeleteObject", ctx, "k1").Return(nil)

		result, err := f.svc.RemoveImage(ctx, actor, p.ID, "k1")
		require.NoError(t, err)
		assert.Empty(t, result.Images)

		_, err = f.svc.RemoveImage(ctx, actor, p.ID, "k1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("storage disabled", func(t *testing.T) {
		svc := NewPropertyService(new(MockPropertyRepository), access.NewChecker(&fakeAssignments{}), nil, nil, zap.NewNop())
		_, err := svc.CreateUploadURL(ctx, actor, uuid.New(), UploadURLInput{ContentType: "image/png"})
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})
}

func TestPropertyService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	admin := identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin}

	f := newFixture()
	p := newProperty(t, uuid.New())
	f.repo.On("FindByID", ctx, p.ID).Return(p, nil)
	f.repo.On("Update", ctx, p).Return(nil)

	result, err := f.svc.ChangeStatus(ctx, admin, p.ID, listing.PropertyStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, listing.PropertyStatusInactive, result.Status)

	_, err = f.svc.ChangeStatus(ctx, landlord(), p.ID, listing.PropertyStatusInactive)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.svc.ChangeStatus(ctx, admin, p.ID, "sold")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
