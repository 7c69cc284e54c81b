package escrow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service manages escrow transactions between renters and owners
type Service struct {
	escrows    payment.EscrowRepository
	properties listing.PropertyRepository
	metrics    *telemetry.MarketplaceMetrics
	logger     *zap.Logger
}

// NewService creates a new escrow service
func NewService(escrows payment.EscrowRepository, properties listing.PropertyRepository, logger *zap.Logger) *Service {
	return &Service{
		escrows:    escrows,
		properties: properties,
		logger:     logger,
	}
}

// SetMetrics attaches business metrics
func (s *Service) SetMetrics(m *telemetry.MarketplaceMetrics) {
	s.metrics = m
}

// List returns the caller's escrows; admins see all
func (s *Service) List(ctx context.Context, actor identity.Actor, input ListInput) (*shared.Paginated[EscrowResult], error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid escrow status")
	}
	f := shared.NewPageRequest(input.Page, input.PageSize)

	filter := payment.EscrowFilter{
		Status:     input.Status,
		PropertyID: input.PropertyID,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}
	if !actor.IsAdmin() {
		filter.PartyID = &actor.ID
	}
	escrows, total, err := s.escrows.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	results := make([]EscrowResult, len(escrows))
	for i := range escrows {
		results[i] = ToEscrowResult(&escrows[i])
	}
	page := shared.NewPaginated(results, total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns one escrow to a party or an admin
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*EscrowResult, error) {
	e, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsParty(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot view this escrow")
	}
	result := ToEscrowResult(e)
	return &result, nil
}

// Create holds the caller's funds for the listing's owner
func (s *Service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (*EscrowResult, error) {
	if input.PropertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "property_id is required")
	}
	if input.Amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "amount is required")
	}

	p, err := s.properties.FindByID(ctx, input.PropertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, listing.ErrPropertyNotFound
		}
		return nil, err
	}

	e, err := payment.NewEscrow(payment.NewEscrowInput{
		PaymentID:         input.PaymentID,
		PropertyID:        p.ID,
		PayerID:           actor.ID,
		PayeeID:           p.OwnerID,
		Amount:            input.Amount,
		Currency:          input.Currency,
		Description:       input.Description,
		ReleaseConditions: input.ReleaseConditions,
	})
	if err != nil {
		return nil, err
	}
	if err := s.escrows.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("Escrow opened",
		zap.String("escrow_id", e.ID.String()),
		zap.String("property_id", p.ID.String()),
		zap.String("amount", e.Amount.StringFixed(2)),
		zap.String("currency", e.Currency),
	)
	s.metrics.RecordEscrowTransition(ctx, "hold")
	result := ToEscrowResult(e)
	return &result, nil
}

// Update applies a release, refund or dispute action
func (s *Service) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, action payment.EscrowAction, reason string) (*EscrowResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "escrow", "update", "escrow_id", id.String(), "action", string(action))
	var err error
	defer func() { telemetry.End(span, err) }()

	var e *payment.EscrowTransaction
	if e, err = s.find(ctx, id); err != nil {
		return nil, err
	}
	previous := e.Status
	if err = e.Apply(action, payment.Actor{ID: actor.ID, IsAdmin: actor.IsAdmin()}, reason); err != nil {
		return nil, err
	}
	if err = s.escrows.Update(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("Escrow status changed",
		zap.String("escrow_id", e.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(e.Status)),
		zap.String("by", actor.ID.String()),
	)
	s.metrics.RecordEscrowTransition(ctx, string(action))
	result := ToEscrowResult(e)
	return &result, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*payment.EscrowTransaction, error) {
	e, err := s.escrows.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, payment.ErrEscrowNotFound
		}
		return nil, err
	}
	return e, nil
}
