package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rentnest/backend/internal/domain/admin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Attribute keys shared by marketplace instruments
var (
	AttrPropertyType  = attribute.Key("property_type")
	AttrProvider      = attribute.Key("provider")
	AttrPaymentStatus = attribute.Key("payment_status")
	AttrCurrency      = attribute.Key("currency")
	AttrEscrowAction  = attribute.Key("escrow_action")
	AttrOutcome       = attribute.Key("outcome")
	AttrRole          = attribute.Key("role")
	AttrStatus        = attribute.Key("status")
)

// StatsSource supplies the platform snapshot sampled into gauges
type StatsSource interface {
	PlatformStats(ctx context.Context) (*admin.PlatformStats, error)
}

// MarketplaceMetrics records rental marketplace activity.
// A nil *MarketplaceMetrics is valid and records nothing.
type MarketplaceMetrics struct {
	logger *zap.Logger

	listingsCreated   metric.Int64Counter
	applications      metric.Int64Counter
	messagesSent      metric.Int64Counter
	payments          metric.Int64Counter
	paymentAmount     metric.Float64Histogram
	escrowTransitions metric.Int64Counter
	alertNotices      metric.Int64Counter
	realtimeClients   metric.Int64UpDownCounter

	usersByRole        metric.Int64Gauge
	propertiesByStatus metric.Int64Gauge
	escrowHeld         metric.Float64Gauge
	activeAlerts       metric.Int64Gauge

	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewMarketplaceMetrics creates the instruments on meter
func NewMarketplaceMetrics(meter metric.Meter, logger *zap.Logger) (*MarketplaceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MarketplaceMetrics{logger: logger, stopCh: make(chan struct{})}

	var err error
	counter := func(name, desc, unit string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return c
	}
	gauge := func(name, desc, unit string) metric.Int64Gauge {
		if err != nil {
			return nil
		}
		var g metric.Int64Gauge
		g, err = meter.Int64Gauge(name, metric.WithDescription(desc), metric.WithUnit(unit))
		return g
	}

	m.listingsCreated = counter("rentnest_listings_created_total", "Properties listed", "{listings}")
	m.applications = counter("rentnest_applications_submitted_total", "Rental applications submitted", "{applications}")
	m.messagesSent = counter("rentnest_messages_sent_total", "Messages sent between users", "{messages}")
	m.payments = counter("rentnest_payments_total", "Payment status changes", "{payments}")
	m.escrowTransitions = counter("rentnest_escrow_transitions_total", "Escrow release, refund and dispute actions", "{transitions}")
	m.alertNotices = counter("rentnest_alert_notifications_total", "Search alert notifications", "{notifications}")
	m.usersByRole = gauge("rentnest_users", "Registered users by role", "{users}")
	m.propertiesByStatus = gauge("rentnest_properties", "Properties by status", "{properties}")
	m.activeAlerts = gauge("rentnest_active_alerts", "Active search alerts", "{alerts}")
	if err != nil {
		return nil, err
	}

	if m.paymentAmount, err = meter.Float64Histogram("rentnest_payment_amount",
		metric.WithDescription("Succeeded payment amounts in major currency units"),
		metric.WithExplicitBucketBoundaries(50, 100, 250, 500, 1000, 2500, 5000, 10000),
	); err != nil {
		return nil, err
	}
	if m.realtimeClients, err = meter.Int64UpDownCounter("rentnest_realtime_connections",
		metric.WithDescription("Open message stream connections"),
		metric.WithUnit("{connections}"),
	); err != nil {
		return nil, err
	}
	if m.escrowHeld, err = meter.Float64Gauge("rentnest_escrow_held_amount",
		metric.WithDescription("Amount currently held or disputed in escrow"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordListingCreated counts a new property listing
func (m *MarketplaceMetrics) RecordListingCreated(ctx context.Context, propertyType string) {
	if m == nil {
		return
	}
	m.listingsCreated.Add(ctx, 1, metric.WithAttributes(AttrPropertyType.String(propertyType)))
}

// RecordApplicationSubmitted counts a rental application
func (m *MarketplaceMetrics) RecordApplicationSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.applications.Add(ctx, 1)
}

// RecordMessageSent counts a delivered message
func (m *MarketplaceMetrics) RecordMessageSent(ctx context.Context) {
	if m == nil {
		return
	}
	m.messagesSent.Add(ctx, 1)
}

// RecordPayment counts a payment reaching status; succeeded amounts also feed the histogram
func (m *MarketplaceMetrics) RecordPayment(ctx context.Context, provider, status string, amount decimal.Decimal, currency string) {
	if m == nil {
		return
	}
	m.payments.Add(ctx, 1, metric.WithAttributes(
		AttrProvider.String(provider),
		AttrPaymentStatus.String(status),
	))
	if status == "succeeded" {
		m.paymentAmount.Record(ctx, amount.InexactFloat64(), metric.WithAttributes(
			AttrProvider.String(provider),
			AttrCurrency.String(currency),
		))
	}
}

// RecordEscrowTransition counts a release, refund or dispute
func (m *MarketplaceMetrics) RecordEscrowTransition(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.escrowTransitions.Add(ctx, 1, metric.WithAttributes(AttrEscrowAction.String(action)))
}

// RecordAlertNotification counts a match email attempt
func (m *MarketplaceMetrics) RecordAlertNotification(ctx context.Context, delivered bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !delivered {
		outcome = "failed"
	}
	m.alertNotices.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome)))
}

// RealtimeConnected tracks an opened message stream
func (m *MarketplaceMetrics) RealtimeConnected(ctx context.Context) {
	if m == nil {
		return
	}
	m.realtimeClients.Add(ctx, 1)
}

// RealtimeDisconnected tracks a closed message stream
func (m *MarketplaceMetrics) RealtimeDisconnected(ctx context.Context) {
	if m == nil {
		return
	}
	m.realtimeClients.Add(ctx, -1)
}

// RecordStats samples a platform snapshot into the gauges
func (m *MarketplaceMetrics) RecordStats(ctx context.Context, s *admin.PlatformStats) {
	if m == nil || s == nil {
		return
	}
	for role, n := range s.UsersByRole {
		m.usersByRole.Record(ctx, n, metric.WithAttributes(AttrRole.String(role)))
	}
	for status, n := range s.PropertiesByStatus {
		m.propertiesByStatus.Record(ctx, n, metric.WithAttributes(AttrStatus.String(status)))
	}
	m.activeAlerts.Record(ctx, s.ActiveAlerts)
	m.escrowHeld.Record(ctx, s.EscrowHeld.InexactFloat64())
}

// StartPeriodicCollection samples src every interval until Stop or ctx is done.
// Only the first call starts a collector.
func (m *MarketplaceMetrics) StartPeriodicCollection(ctx context.Context, src StatsSource, interval time.Duration) {
	if m == nil || src == nil {
		return
	}
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runCollection(ctx, src, interval)
	})
}

func (m *MarketplaceMetrics) runCollection(ctx context.Context, src StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collect(ctx, src)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collect(ctx, src)
		}
	}
}

func (m *MarketplaceMetrics) collect(ctx context.Context, src StatsSource) {
	stats, err := src.PlatformStats(ctx)
	if err != nil {
		m.logger.Warn("failed to collect platform stats for metrics", zap.Error(err))
		return
	}
	m.RecordStats(ctx, stats)
}

// Stop ends periodic collection
func (m *MarketplaceMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() { close(m.stopCh) })
}
