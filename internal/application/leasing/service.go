package leasing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/application/access"
	"github.com/rentnest/backend/internal/domain/agent"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/leasing"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	errApplicationNotFound  = shared.NewDomainError("NOT_FOUND", "Application not found")
	errDuplicateApplication = shared.NewDomainError("ALREADY_EXISTS", "You already have an open application for this property")
)

// Service handles rental applications
type Service struct {
	applications leasing.ApplicationRepository
	properties   listing.PropertyRepository
	access       *access.Checker
	events       shared.EventPublisher
	metrics      *telemetry.MarketplaceMetrics
	logger       *zap.Logger
}

// NewService creates a new leasing service. events may be nil.
func NewService(
	applications leasing.ApplicationRepository,
	properties listing.PropertyRepository,
	checker *access.Checker,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		applications: applications,
		properties:   properties,
		access:       checker,
		events:       events,
		logger:       logger,
	}
}

// SetMetrics attaches business metrics
func (s *Service) SetMetrics(m *telemetry.MarketplaceMetrics) {
	s.metrics = m
}

// Submit files a renter's application for an available listing
func (s *Service) Submit(ctx context.Context, actor identity.Actor, input SubmitInput) (*ApplicationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "leasing", "submit", "property_id", input.PropertyID.String())
	var err error
	defer func() { telemetry.End(span, err) }()

	if !actor.Is(identity.RoleRenter) {
		err = shared.NewDomainError("FORBIDDEN", "Only renters can apply for properties")
		return nil, err
	}
	if input.PropertyID == uuid.Nil {
		err = shared.NewDomainError("INVALID_INPUT", "property_id is required")
		return nil, err
	}

	var p *listing.Property
	if p, err = s.findProperty(ctx, input.PropertyID); err != nil {
		return nil, err
	}
	if !p.IsAvailable() {
		err = listing.ErrPropertyNotAvailable
		return nil, err
	}
	if p.IsOwnedBy(actor.ID) {
		err = shared.NewDomainError("INVALID_STATE", "You cannot apply to your own property")
		return nil, err
	}

	var open bool
	if open, err = s.applications.HasOpenApplication(ctx, p.ID, actor.ID); err != nil {
		return nil, err
	}
	if open {
		err = errDuplicateApplication
		return nil, err
	}

	var app *leasing.Application
	if app, err = leasing.NewApplication(p.ID, actor.ID, input.Message, input.MoveInDate, input.MonthlyIncome, input.Occupants); err != nil {
		return nil, err
	}
	if err = s.applications.Create(ctx, app); err != nil {
		// lost a race against the open-application unique index
		if errors.Is(err, shared.ErrAlreadyExists) {
			err = errDuplicateApplication
		}
		return nil, err
	}

	s.logger.Info("Application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("property_id", p.ID.String()),
		zap.String("applicant_id", actor.ID.String()),
	)
	s.metrics.RecordApplicationSubmitted(ctx)
	s.publish(ctx, app)

	result := ToApplicationResult(app)
	return &result, nil
}

// List returns the applications visible to the caller
func (s *Service) List(ctx context.Context, actor identity.Actor, input ListInput) (*shared.Paginated[ApplicationResult], error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid application status")
	}
	page := shared.NewPageRequest(input.Page, input.PageSize)

	filter := leasing.ApplicationFilter{
		Status:     input.Status,
		PropertyID: input.PropertyID,
		Page:       page.Page,
		PageSize:   page.PageSize,
	}
	switch actor.Role {
	case identity.RoleAdmin:
	case identity.RoleLandlord:
		filter.OwnerIDs = []uuid.UUID{actor.ID}
		filter.Restricted = true
	case identity.RoleAgent:
		scope, err := s.access.AgentScope(ctx, actor.ID, agent.PermissionManageApplications)
		if err != nil {
			return nil, err
		}
		filter.OwnerIDs = scope.OwnerIDs
		filter.PropertyIDs = scope.PropertyIDs
		filter.Restricted = true
	default:
		filter.ApplicantID = &actor.ID
		filter.Restricted = true
	}

	apps, total, err := s.applications.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	results := make([]ApplicationResult, len(apps))
	for i := range apps {
		results[i] = ToApplicationResult(&apps[i])
	}
	paginated := shared.NewPaginated(results, total, page.Page, page.PageSize)
	return &paginated, nil
}

// Get returns one application to the applicant, the owner, an authorised agent or an admin
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ApplicationResult, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actor.ID && !actor.IsAdmin() {
		if _, err := s.managedProperty(ctx, actor, app.PropertyID); err != nil {
			return nil, err
		}
	}
	result := ToApplicationResult(app)
	return &result, nil
}

// Review approves or rejects a pending application. Approval puts the listing on hold.
func (s *Service) Review(ctx context.Context, actor identity.Actor, id uuid.UUID, input ReviewInput) (*ApplicationResult, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.managedProperty(ctx, actor, app.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := app.Review(actor.ID, input.Status, input.Note); err != nil {
		return nil, err
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return nil, err
	}

	if app.Status == leasing.ApplicationStatusApproved {
		if err := p.ChangeStatus(listing.PropertyStatusPending); err != nil {
			return nil, err
		}
		if err := s.properties.Update(ctx, p); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Application reviewed",
		zap.String("application_id", app.ID.String()),
		zap.String("status", string(app.Status)),
		zap.String("reviewer_id", actor.ID.String()),
	)
	s.publish(ctx, app)

	result := ToApplicationResult(app)
	return &result, nil
}

// Withdraw cancels the caller's pending application
func (s *Service) Withdraw(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ApplicationResult, error) {
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := app.Withdraw(actor.ID); err != nil {
		return nil, err
	}
	if err := s.applications.Update(ctx, app); err != nil {
		return nil, err
	}
	result := ToApplicationResult(app)
	return &result, nil
}

// managedProperty loads the listing and checks the caller may manage its applications
func (s *Service) managedProperty(ctx context.Context, actor identity.Actor, propertyID uuid.UUID) (*listing.Property, error) {
	p, err := s.findProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	ok, err := s.access.CanManage(ctx, actor, p, agent.PermissionManageApplications)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot manage applications for this property")
	}
	return p, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*leasing.Application, error) {
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *Service) findProperty(ctx context.Context, id uuid.UUID) (*listing.Property, error) {
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) publish(ctx context.Context, app *leasing.Application) {
	events := app.GetDomainEvents()
	app.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish application events",
			zap.String("application_id", app.ID.String()),
			zap.Error(err),
		)
	}
}
