package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	errPaymentInProgress = shared.NewDomainError("ALREADY_EXISTS", "A payment with this Idempotency-Key is already being processed")
	errGatewayRejected   = shared.NewDomainError("GATEWAY_ERROR", "The payment provider rejected the request")
	errInvalidSignature  = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
)

// Options tunes the payment service
type Options struct {
	// ReturnURL and CancelURL are handed to redirect-based gateways
	ReturnURL string
	CancelURL string
	// IdempotencyTTL is how long a claimed Idempotency-Key blocks concurrent reuse
	IdempotencyTTL time.Duration
}

// Service handles payments through external gateways
type Service struct {
	payments    payment.PaymentRepository
	escrows     payment.EscrowRepository
	properties  listing.PropertyRepository
	profiles    identity.ProfileRepository
	gateways    payment.GatewayRegistry
	idempotency shared.IdempotencyStore
	receipts    payment.ReceiptRenderer
	events      shared.EventPublisher
	metrics     *telemetry.MarketplaceMetrics
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new payment service.
// idempotency, receipts and events may be nil.
func NewService(
	payments payment.PaymentRepository,
	escrows payment.EscrowRepository,
	properties listing.PropertyRepository,
	profiles identity.ProfileRepository,
	gateways payment.GatewayRegistry,
	idempotency shared.IdempotencyStore,
	receipts payment.ReceiptRenderer,
	events shared.EventPublisher,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		payments:    payments,
		escrows:     escrows,
		properties:  properties,
		profiles:    profiles,
		gateways:    gateways,
		idempotency: idempotency,
		receipts:    receipts,
		events:      events,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// SetMetrics attaches business metrics
func (s *Service) SetMetrics(m *telemetry.MarketplaceMetrics) {
	s.metrics = m
}

// Create opens a payment to the listing's owner. created is false when an
// earlier request with the same Idempotency-Key is replayed.
func (s *Service) Create(ctx context.Context, actor identity.Actor, input CreateInput) (*PaymentResult, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "payment", "create",
		"provider", string(input.Provider),
		"payment_type", string(input.PaymentType),
	)
	var err error
	defer func() { telemetry.End(span, err) }()

	if input.PropertyID == uuid.Nil {
		err = shared.NewDomainError("INVALID_INPUT", "property_id is required")
		return nil, false, err
	}

	key := input.IdempotencyKey
	if key != "" {
		var existing *PaymentResult
		if existing, err = s.replay(ctx, actor.ID, key); err != nil || existing != nil {
			return existing, false, err
		}
		var release func()
		if release, err = s.claim(ctx, actor.ID, key); err != nil {
			return nil, false, err
		}
		defer func() {
			if err != nil {
				release()
			}
		}()
	}

	var p *listing.Property
	if p, err = s.findProperty(ctx, input.PropertyID); err != nil {
		return nil, false, err
	}
	if p.IsOwnedBy(actor.ID) {
		err = shared.NewDomainError("INVALID_INPUT", "You cannot pay for your own property")
		return nil, false, err
	}

	var pay *payment.Payment
	if pay, err = payment.NewPayment(payment.NewPaymentInput{
		PayerID:        actor.ID,
		PayeeID:        p.OwnerID,
		PropertyID:     p.ID,
		ApplicationID:  input.ApplicationID,
		Amount:         input.Amount,
		Currency:       input.Currency,
		PaymentType:    input.PaymentType,
		Provider:       input.Provider,
		Description:    input.Description,
		IdempotencyKey: key,
	}); err != nil {
		return nil, false, err
	}

	var gw payment.Gateway
	if gw, err = s.gateway(pay.Provider); err != nil {
		return nil, false, err
	}

	if err = s.payments.Create(ctx, pay); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) && key != "" {
			// the unique (payer, key) constraint caught a duplicate the claim missed
			var existing *PaymentResult
			if existing, err = s.replay(ctx, actor.ID, key); err == nil && existing != nil {
				return existing, false, nil
			}
			err = errPaymentInProgress
		}
		return nil, false, err
	}

	var intent *payment.CreateIntentResponse
	if intent, err = s.createIntent(ctx, gw, pay); err != nil {
		pay.MarkFailed()
		if uerr := s.payments.Update(ctx, pay); uerr != nil {
			s.logger.Error("Failed to mark payment failed", zap.String("payment_id", pay.ID.String()), zap.Error(uerr))
		}
		s.metrics.RecordPayment(ctx, pay.Provider.String(), string(pay.Status), pay.Amount, pay.Currency)
		err = translateGatewayError(err)
		return nil, false, err
	}
	pay.AttachIntent(intent)
	if err = s.payments.Update(ctx, pay); err != nil {
		return nil, false, err
	}

	result := toPaymentResult(pay, actor.ID)
	if input.HoldInEscrow {
		var escrow *payment.EscrowTransaction
		if escrow, err = s.openEscrow(ctx, pay, input.ReleaseConditions); err != nil {
			return nil, false, err
		}
		result.EscrowID = &escrow.ID
	}

	s.logger.Info("Payment created",
		zap.String("payment_id", pay.ID.String()),
		zap.String("provider", pay.Provider.String()),
		zap.String("provider_payment_id", pay.ProviderPaymentID),
		zap.String("amount", pay.Amount.StringFixed(2)),
		zap.String("currency", pay.Currency),
		zap.Bool("escrow", input.HoldInEscrow),
	)
	s.metrics.RecordPayment(ctx, pay.Provider.String(), string(pay.Status), pay.Amount, pay.Currency)
	s.publish(ctx, pay)
	return &result, true, nil
}

// replay returns the payer's payment previously created under key, or nil
func (s *Service) replay(ctx context.Context, payerID uuid.UUID, key string) (*PaymentResult, error) {
	existing, err := s.payments.FindByIdempotencyKey(ctx, payerID, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.logger.Debug("Replaying idempotent payment request",
		zap.String("payment_id", existing.ID.String()),
	)
	result := toPaymentResult(existing, payerID)
	return &result, nil
}

// claim reserves key so concurrent duplicates are rejected; release undoes it
func (s *Service) claim(ctx context.Context, payerID uuid.UUID, key string) (func(), error) {
	noop := func() {}
	if s.idempotency == nil {
		return noop, nil
	}
	storeKey := "payment:idempotency:" + payerID.String() + ":" + key
	ok, err := s.idempotency.Reserve(ctx, storeKey, s.opts.IdempotencyTTL)
	if err != nil {
		// fall back to the database constraint
		s.logger.Warn("Idempotency store unavailable", zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, errPaymentInProgress
	}
	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), storeKey); err != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(err))
		}
	}, nil
}

func (s *Service) createIntent(ctx context.Context, gw payment.Gateway, pay *payment.Payment) (resp *payment.CreateIntentResponse, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, pay.Provider.String(), "create_intent",
		"payment_id", pay.ID.String(),
		"currency", pay.Currency,
	)
	defer func() { telemetry.End(span, err) }()

	idempotencyKey := pay.ID.String()
	if pay.IdempotencyKey != nil {
		idempotencyKey = *pay.IdempotencyKey
	}
	return gw.CreateIntent(ctx, &payment.CreateIntentRequest{
		Reference:      pay.ID.String(),
		Amount:         pay.Amount,
		Currency:       pay.Currency,
		Description:    pay.Description,
		IdempotencyKey: idempotencyKey,
		ReturnURL:      s.opts.ReturnURL,
		CancelURL:      s.opts.CancelURL,
	})
}

func (s *Service) openEscrow(ctx context.Context, pay *payment.Payment, conditions string) (*payment.EscrowTransaction, error) {
	escrow, err := payment.NewEscrow(payment.NewEscrowInput{
		PaymentID:         &pay.ID,
		PropertyID:        pay.PropertyID,
		PayerID:           pay.PayerID,
		PayeeID:           pay.PayeeID,
		Amount:            pay.Amount,
		Currency:          pay.Currency,
		Description:       pay.Description,
		ReleaseConditions: conditions,
	})
	if err != nil {
		return nil, err
	}
	if err := s.escrows.Create(ctx, escrow); err != nil {
		return nil, err
	}
	s.metrics.RecordEscrowTransition(ctx, "hold")
	return escrow, nil
}

// List returns payments the caller paid or received; admins see all
func (s *Service) List(ctx context.Context, actor identity.Actor, input ListInput) (*shared.Paginated[PaymentResult], error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid payment status")
	}
	f := shared.NewPageRequest(input.Page, input.PageSize)

	filter := payment.PaymentFilter{
		Status:     input.Status,
		PropertyID: input.PropertyID,
		Page:       f.Page,
		PageSize:   f.PageSize,
	}
	if !actor.IsAdmin() {
		filter.PartyID = &actor.ID
	}
	payments, total, err := s.payments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	results := make([]PaymentResult, len(payments))
	for i := range payments {
		results[i] = toPaymentResult(&payments[i], actor.ID)
	}
	page := shared.NewPaginated(results, total, f.Page, f.PageSize)
	return &page, nil
}

// Get returns one payment to a party or an admin
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PaymentResult, error) {
	pay, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	result := toPaymentResult(pay, actor.ID)
	return &result, nil
}

// Sync refreshes the payment status from its gateway
func (s *Service) Sync(ctx context.Context, actor identity.Actor, id uuid.UUID) (*PaymentResult, error) {
	pay, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if pay.ProviderPaymentID == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "Payment has no gateway reference")
	}
	if err := s.refresh(ctx, pay); err != nil {
		return nil, err
	}
	result := toPaymentResult(pay, actor.ID)
	return &result, nil
}

// refresh queries the gateway and persists any status change
func (s *Service) refresh(ctx context.Context, pay *payment.Payment) (err error) {
	gw, err := s.gateway(pay.Provider)
	if err != nil {
		return err
	}
	qctx, span := telemetry.StartClientSpan(ctx, pay.Provider.String(), "query", "payment_id", pay.ID.String())
	resp, err := gw.Query(qctx, pay.ProviderPaymentID)
	telemetry.End(span, err)
	if err != nil {
		return translateGatewayError(err)
	}
	return s.apply(ctx, pay, resp.Status, resp.PaidAt)
}

func (s *Service) apply(ctx context.Context, pay *payment.Payment, status payment.GatewayStatus, paidAt *time.Time) error {
	previous := pay.Status
	if !pay.ApplyGatewayStatus(status, paidAt) {
		return nil
	}
	if err := s.payments.Update(ctx, pay); err != nil {
		return err
	}
	s.logger.Info("Payment status changed",
		zap.String("payment_id", pay.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(pay.Status)),
	)
	s.metrics.RecordPayment(ctx, pay.Provider.String(), string(pay.Status), pay.Amount, pay.Currency)
	s.publish(ctx, pay)
	return nil
}

// Refund returns a succeeded payment to the payer; payee or admin only
func (s *Service) Refund(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*PaymentResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "payment", "refund", "payment_id", id.String())
	var err error
	defer func() { telemetry.End(span, err) }()

	var pay *payment.Payment
	if pay, err = s.find(ctx, id); err != nil {
		return nil, err
	}
	if pay.PayeeID != actor.ID && !actor.IsAdmin() {
		err = shared.NewDomainError("FORBIDDEN", "Only the payee or an admin can refund a payment")
		return nil, err
	}
	if pay.Status != payment.StatusSucceeded {
		err = shared.NewDomainError("INVALID_STATE", "Only succeeded payments can be refunded")
		return nil, err
	}

	var gw payment.Gateway
	if gw, err = s.gateway(pay.Provider); err != nil {
		return nil, err
	}
	rctx, rspan := telemetry.StartClientSpan(ctx, pay.Provider.String(), "refund", "payment_id", pay.ID.String())
	var resp *payment.RefundResponse
	resp, err = gw.Refund(rctx, &payment.RefundRequest{
		ProviderPaymentID: pay.ProviderPaymentID,
		Amount:            pay.Amount,
		Currency:          pay.Currency,
		Reason:            reason,
	})
	telemetry.End(rspan, err)
	if err != nil {
		err = translateGatewayError(err)
		return nil, err
	}
	if !resp.Succeeded {
		err = errGatewayRejected
		return nil, err
	}

	if err = pay.MarkRefunded(); err != nil {
		return nil, err
	}
	if err = s.payments.Update(ctx, pay); err != nil {
		return nil, err
	}
	s.logger.Info("Payment refunded",
		zap.String("payment_id", pay.ID.String()),
		zap.String("provider_refund_id", resp.ProviderRefundID),
		zap.String("by", actor.ID.String()),
	)
	s.metrics.RecordPayment(ctx, pay.Provider.String(), string(pay.Status), pay.Amount, pay.Currency)

	result := toPaymentResult(pay, actor.ID)
	return &result, nil
}

// HandleWebhook verifies a gateway notification and applies it.
// Notifications for unknown payments are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, provider string, payload []byte, headers map[string]string) error {
	ctx, span := telemetry.StartSpan(ctx, "payment", "webhook", "provider", provider)
	var err error
	defer func() { telemetry.End(span, err) }()

	prov := payment.Provider(provider)
	if !prov.IsValid() {
		err = shared.NewDomainError("NOT_FOUND", "Unknown payment provider")
		return err
	}
	var gw payment.Gateway
	if gw, err = s.gateway(prov); err != nil {
		return err
	}

	var event *payment.WebhookEvent
	if event, err = gw.VerifyWebhook(ctx, payload, headers); err != nil {
		if errors.Is(err, payment.ErrGatewayInvalidCallback) {
			s.logger.Warn("Rejected webhook", zap.String("provider", provider), zap.Error(err))
			err = errInvalidSignature
		}
		return err
	}

	if event.EventID != "" && s.idempotency != nil {
		storeKey := "payment:webhook:" + provider + ":" + event.EventID
		reserved, rerr := s.idempotency.Reserve(ctx, storeKey, s.opts.IdempotencyTTL)
		if rerr == nil && !reserved {
			s.logger.Debug("Duplicate webhook delivery", zap.String("event_id", event.EventID))
			return nil
		}
		if reserved {
			// a failed delivery must be retryable
			defer func() {
				if err != nil {
					_ = s.idempotency.Release(context.WithoutCancel(ctx), storeKey)
				}
			}()
		}
	}

	var pay *payment.Payment
	if pay, err = s.lookupWebhookPayment(ctx, prov, event); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Webhook for unknown payment",
				zap.String("provider", provider),
				zap.String("provider_payment_id", event.ProviderPaymentID),
			)
			err = nil
		}
		return err
	}

	if event.Status == payment.GatewayStatusPending || event.Status == "" {
		// the event alone does not settle the payment; ask the gateway
		err = s.refresh(ctx, pay)
		return err
	}
	err = s.apply(ctx, pay, event.Status, nil)
	return err
}

func (s *Service) lookupWebhookPayment(ctx context.Context, provider payment.Provider, event *payment.WebhookEvent) (*payment.Payment, error) {
	if event.ProviderPaymentID != "" {
		pay, err := s.payments.FindByProviderPaymentID(ctx, provider, event.ProviderPaymentID)
		if err == nil || !errors.Is(err, shared.ErrNotFound) {
			return pay, err
		}
	}
	if id, perr := uuid.Parse(event.Reference); perr == nil {
		return s.payments.FindByID(ctx, id)
	}
	return nil, shared.ErrNotFound
}

// Receipt renders a PDF receipt for a succeeded payment
func (s *Service) Receipt(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ReceiptFile, error) {
	if s.receipts == nil {
		return nil, shared.ErrServiceUnavailable
	}
	pay, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	receipt, err := payment.NewReceipt(pay, s.now())
	if err != nil {
		return nil, err
	}

	if p, err := s.properties.FindByID(ctx, pay.PropertyID); err == nil {
		receipt.PropertyTitle = p.Title
		receipt.PropertyAddress = p.Address + ", " + p.City
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	parties, err := s.profiles.FindByIDs(ctx, []uuid.UUID{pay.PayerID, pay.PayeeID})
	if err != nil {
		return nil, err
	}
	for _, prof := range parties {
		switch prof.ID {
		case pay.PayerID:
			receipt.PayerName = prof.FullName
			receipt.PayerEmail = prof.Email
		case pay.PayeeID:
			receipt.PayeeName = prof.FullName
		}
	}

	rctx, span := telemetry.StartSpan(ctx, "payment", "render_receipt", "payment_id", pay.ID.String())
	pdf, err := s.receipts.RenderReceipt(rctx, receipt)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}
	return &ReceiptFile{FileName: "receipt-" + receipt.Number + ".pdf", Content: pdf}, nil
}

func (s *Service) gateway(provider payment.Provider) (payment.Gateway, error) {
	gw, err := s.gateways.Get(provider)
	if err != nil {
		if errors.Is(err, payment.ErrGatewayNotConfigured) {
			return nil, shared.NewDomainError("INVALID_INPUT", "Payment provider "+provider.String()+" is not configured")
		}
		return nil, err
	}
	return gw, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	pay, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return pay, nil
}

func (s *Service) findVisible(ctx context.Context, actor identity.Actor, id uuid.UUID) (*payment.Payment, error) {
	pay, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pay.IsParty(actor.ID) && !actor.IsAdmin() {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot view this payment")
	}
	return pay, nil
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

func (s *Service) publish(ctx context.Context, pay *payment.Payment) {
	events := pay.GetDomainEvents()
	pay.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish payment events",
			zap.String("payment_id", pay.ID.String()),
			zap.Error(err),
		)
	}
}

// translateGatewayError maps adapter errors onto API error codes
func translateGatewayError(err error) error {
	switch {
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return shared.ErrServiceUnavailable
	case errors.Is(err, payment.ErrGatewayRequestFailed), errors.Is(err, payment.ErrGatewayInvalidResponse):
		return errGatewayRejected
	default:
		return err
	}
}
