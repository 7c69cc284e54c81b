package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MatchHandler notifies owners of instant alerts when a matching listing goes live
type MatchHandler struct {
	alerts   alert.SearchAlertRepository
	profiles identity.ProfileRepository
	notifier alert.Notifier
	metrics  *telemetry.MarketplaceMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(
	alerts alert.SearchAlertRepository,
	profiles identity.ProfileRepository,
	notifier alert.Notifier,
	logger *zap.Logger,
) *MatchHandler {
	return &MatchHandler{
		alerts:   alerts,
		profiles: profiles,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics attaches business metrics
func (h *MatchHandler) SetMetrics(m *telemetry.MarketplaceMetrics) {
	h.metrics = m
}

// EventTypes returns the event types this handler is interested in
func (h *MatchHandler) EventTypes() []string {
	return []string{listing.EventTypePropertyListed}
}

// Handle matches the listed property against every active instant alert.
// A failed notification is logged and does not stop the others.
func (h *MatchHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	listed, ok := event.(*listing.PropertyListedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	ctx, span := telemetry.StartSpan(ctx, "alert", "match", "property_id", listed.Property.ID.String())
	var err error
	defer func() { telemetry.End(span, err) }()

	var alerts []alert.SearchAlert
	if alerts, err = h.alerts.FindActiveByFrequency(ctx, alert.FrequencyInstant); err != nil {
		return err
	}

	var matched []*alert.SearchAlert
	for i := range alerts {
		if alerts[i].ShouldNotify(&listed.Property) {
			matched = append(matched, &alerts[i])
		}
	}
	if len(matched) == 0 {
		return nil
	}

	recipients, err := h.recipients(ctx, matched)
	if err != nil {
		return err
	}

	var failures []error
	for _, a := range matched {
		profile, ok := recipients[a.UserID]
		if !ok {
			continue
		}
		notice := alert.MatchNotice{
			RecipientEmail: profile.Email,
			RecipientName:  profile.FullName,
			AlertName:      a.Name,
			Property:       listed.Property,
		}
		if nerr := h.notifier.NotifyMatch(ctx, notice); nerr != nil {
			h.metrics.RecordAlertNotification(ctx, false)
			h.logger.Warn("Failed to send alert notification",
				zap.String("alert_id", a.ID.String()),
				zap.Error(nerr),
			)
			failures = append(failures, nerr)
			continue
		}
		h.metrics.RecordAlertNotification(ctx, true)
		if merr := h.alerts.MarkNotified(ctx, a.ID, h.now()); merr != nil {
			h.logger.Warn("Failed to stamp alert notification time",
				zap.String("alert_id", a.ID.String()),
				zap.Error(merr),
			)
		}
	}

	h.logger.Info("Alert matching finished",
		zap.String("property_id", listed.Property.ID.String()),
		zap.Int("matched", len(matched)),
		zap.Int("failed", len(failures)),
	)
	// only a total failure is worth a redelivery
	if len(failures) == len(matched) {
		err = errors.Join(failures...)
	}
	return err
}

func (h *MatchHandler) recipients(ctx context.Context, matched []*alert.SearchAlert) (map[uuid.UUID]identity.Profile, error) {
	ids := make([]uuid.UUID, 0, len(matched))
	seen := make(map[uuid.UUID]bool, len(matched))
	for _, a := range matched {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}
	profiles, err := h.profiles.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]identity.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID, nil
}

var _ shared.EventHandler = (*MatchHandler)(nil)
