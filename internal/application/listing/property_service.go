package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/application/access"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// uploadURLExpiry bounds how long a presigned image upload stays valid
const uploadURLExpiry = 15 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PropertyService handles listing use cases
type PropertyService struct {
	properties listing.PropertyRepository
	access     *access.Checker
	images     ImageStorage
	events     shared.EventPublisher
	metrics    *telemetry.MarketplaceMetrics
	logger     *zap.Logger
}

// NewPropertyService creates a new PropertyService. images and events may be nil.
func NewPropertyService(
	properties listing.PropertyRepository,
	checker *access.Checker,
	images ImageStorage,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		access:     checker,
		images:     images,
		events:     events,
		logger:     logger,
	}
}

// SetMetrics attaches business metrics
func (s *PropertyService) SetMetrics(m *telemetry.MarketplaceMetrics) {
	s.metrics = m
}

// Search returns one page of listings. viewer is nil for anonymous callers.
// Without an explicit status only available listings are shown, unless the
// viewer is an admin or is browsing their own listings.
func (s *PropertyService) Search(ctx context.Context, viewer *identity.Actor, filter listing.SearchFilter) (*shared.Paginated[PropertyResult], error) {
	if err := filter.Criteria.Validate(); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid property status")
	}
	if filter.MinBedrooms != nil && filter.MaxBedrooms != nil && *filter.MinBedrooms > *filter.MaxBedrooms {
		return nil, shared.NewDomainError("INVALID_INPUT", "Minimum bedrooms cannot exceed maximum bedrooms")
	}
	if filter.Status == nil && !seesAllStatuses(viewer, filter.OwnerID) {
		available := listing.PropertyStatusAvailable
		filter.Status = &available
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	properties, total, err := s.properties.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToPropertyResults(properties), total, filter.Page, filter.PageSize)
	return &page, nil
}

func seesAllStatuses(viewer *identity.Actor, ownerID *uuid.UUID) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || (ownerID != nil && *ownerID == viewer.ID)
}

// Get returns one listing
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*PropertyResult, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	result := ToPropertyResult(p)
	return &result, nil
}

// Create lists a new property owned by the caller
func (s *PropertyService) Create(ctx context.Context, actor identity.Actor, input PropertyInput) (*PropertyResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "listing", "create", "owner_id", actor.ID.String())
	var err error
	defer func() { telemetry.End(span, err) }()

	if !actor.Is(identity.RoleLandlord) && !actor.IsAdmin() {
		err = shared.NewDomainError("FORBIDDEN", "Only landlords can create listings")
		return nil, err
	}
	var p *listing.Property
	if p, err = listing.NewProperty(actor.ID, input.details()); err != nil {
		return nil, err
	}
	if err = s.properties.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Property listed",
		zap.String("property_id", p.ID.String()),
		zap.String("owner_id", actor.ID.String()),
		zap.String("city", p.City),
	)
	s.metrics.RecordListingCreated(ctx, string(p.PropertyType))
	s.publish(ctx, p)

	result := ToPropertyResult(p)
	return &result, nil
}

// Update replaces the details of a listing the caller may edit
func (s *PropertyService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input UpdatePropertyInput) (*PropertyResult, error) {
	p, err := s.findEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(input.details()); err != nil {
		return nil, err
	}
	if input.Status != nil {
		if err := p.ChangeStatus(*input.Status); err != nil {
			return nil, err
		}
	}
	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	result := ToPropertyResult(p)
	return &result, nil
}

// ChangeStatus is the admin moderation path for a listing's status
func (s *PropertyService) ChangeStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, status listing.PropertyStatus) (*PropertyResult, error) {
	if !actor.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid property status")
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Status
	if err := p.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Property status moderated",
		zap.String("property_id", p.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("admin_id", actor.ID.String()),
	)
	s.publish(ctx, p)

	result := ToPropertyResult(p)
	return &result, nil
}

// Delete removes a listing. Only the owner or an admin may delete.
func (s *PropertyService) Delete(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsOwnedBy(actor.ID) && !actor.IsAdmin() {
		return shared.NewDomainError("FORBIDDEN", "Only the owner can delete this listing")
	}
	if err := s.properties.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return listing.ErrPropertyNotFound
		}
		return err
	}
	for _, img := range p.Images {
		s.deleteObject(ctx, img.Key)
	}
	return nil
}

// Mine returns the listings a landlord owns or an agent is assigned to
func (s *PropertyService) Mine(ctx context.Context, actor identity.Actor, page, pageSize int) (*shared.Paginated[PropertyResult], error) {
	page, pageSize = normalizePage(page, pageSize)
	filter := listing.SearchFilter{Page: page, PageSize: pageSize}

	if actor.Is(identity.RoleAgent) {
		scope, err := s.access.AgentScope(ctx, actor.ID, "")
		if err != nil {
			return nil, err
		}
		if scope.IsEmpty() {
			empty := shared.NewPaginated([]PropertyResult{}, 0, page, pageSize)
			return &empty, nil
		}
		filter.Scope = &scope
	} else {
		filter.OwnerID = &actor.ID
	}

	properties, total, err := s.properties.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToPropertyResults(properties), total, page, pageSize)
	return &result, nil
}

// CreateUploadURL presigns an upload for a new image of the listing
func (s *PropertyService) CreateUploadURL(ctx context.Context, actor identity.Actor, id uuid.UUID, input UploadURLInput) (*UploadURLResult, error) {
	if s.images == nil {
		return nil, shared.ErrServiceUnavailable
	}
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported image content type")
	}
	p, err := s.findEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(p.Images) >= listing.MaxImagesPerProperty {
		return nil, shared.NewDomainError("INVALID_INPUT", "Too many images for one property")
	}

	key := imagePrefix(p.ID) + uuid.New().String() + ext
	url, expiresAt, err := s.images.GenerateUploadURL(ctx, key, contentType, uploadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &UploadURLResult{UploadURL: url, StorageKey: key, ExpiresAt: expiresAt}, nil
}

// AddImage attaches an uploaded object to the listing
func (s *PropertyService) AddImage(ctx context.Context, actor identity.Actor, id uuid.UUID, storageKey string) (*PropertyResult, error) {
	if s.images == nil {
		return nil, shared.ErrServiceUnavailable
	}
	p, err := s.findEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(storageKey, imagePrefix(p.ID)) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Storage key does not belong to this property")
	}
	exists, err := s.images.ObjectExists(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_INPUT", "Image has not been uploaded")
	}
	url, err := s.images.PublicURL(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	if err := p.AddImage(storageKey, url); err != nil {
		return nil, err
	}
	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	result := ToPropertyResult(p)
	return &result, nil
}

// RemoveImage detaches an image and deletes the stored object
func (s *PropertyService) RemoveImage(ctx context.Context, actor identity.Actor, id uuid.UUID, storageKey string) (*PropertyResult, error) {
	p, err := s.findEditable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !p.RemoveImage(storageKey) {
		return nil, shared.NewDomainError("NOT_FOUND", "Image not found")
	}
	if err := s.properties.Update(ctx, p); err != nil {
		return nil, err
	}
	s.deleteObject(ctx, storageKey)

	result := ToPropertyResult(p)
	return &result, nil
}

func (s *PropertyService) find(ctx context.Context, id uuid.UUID) (*listing.Property, error) {
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PropertyService) findEditable(ctx context.Context, actor identity.Actor, id uuid.UUID) (*listing.Property, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.access.CanManage(ctx, actor, p, agent.PermissionEditListings)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot edit this listing")
	}
	return p, nil
}

func (s *PropertyService) deleteObject(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete property image",
			zap.String("storage_key", key),
			zap.Error(err),
		)
	}
}

func (s *PropertyService) publish(ctx context.Context, p *listing.Property) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish property events",
			zap.String("property_id", p.ID.String()),
			zap.Error(err),
		)
	}
}

func imagePrefix(propertyID uuid.UUID) string {
	return "properties/" + propertyID.String() + "/"
}

func normalizePage(page, pageSize int) (int, int) {
	f := shared.NewPageRequest(page, pageSize)
	return f.Page, f.PageSize
}
