package admin

import (
	"context"
	"fmt"

	"github.com/rentnest/backend/internal/domain/admin"
	"github.com/rentnest/backend/internal/domain/alert"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/leasing"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/domain/payment"
	"github.com/rentnest/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsResult is the admin dashboard payload
type StatsResult struct {
	Users         CountBreakdown  `json:"users"`
	Properties    CountBreakdown  `json:"properties"`
	Applications  CountBreakdown  `json:"applications"`
	Payments      PaymentSummary  `json:"payments"`
	EscrowHeld    decimal.Decimal `json:"escrow_held"`
	ActiveAlerts  int64           `json:"active_alerts"`
	Conversations int64           `json:"conversations"`
	Messages      int64           `json:"messages"`
}

// CountBreakdown is a total with its per-key split
type CountBreakdown struct {
	Total int64            `json:"total"`
	By    map[string]int64 `json:"by"`
}

// PaymentSummary covers succeeded payments
type PaymentSummary struct {
	Succeeded int64           `json:"succeeded"`
	Volume    decimal.Decimal `json:"volume"`
}

// StatsService aggregates platform counters for admins and the metrics collector
type StatsService struct {
	profiles      identity.ProfileRepository
	properties    listing.PropertyRepository
	applications  leasing.ApplicationRepository
	payments      payment.PaymentRepository
	escrows       payment.EscrowRepository
	alerts        alert.SearchAlertRepository
	conversations messaging.ConversationRepository
	messages      messaging.MessageRepository
	logger        *zap.Logger
}

var _ telemetry.StatsSource = (*StatsService)(nil)

// NewStatsService creates a new stats service
func NewStatsService(
	profiles identity.ProfileRepository,
	properties listing.PropertyRepository,
	applications leasing.ApplicationRepository,
	payments payment.PaymentRepository,
	escrows payment.EscrowRepository,
	alerts alert.SearchAlertRepository,
	conversations messaging.ConversationRepository,
	messages messaging.MessageRepository,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		profiles:      profiles,
		properties:    properties,
		applications:  applications,
		payments:      payments,
		escrows:       escrows,
		alerts:        alerts,
		conversations: conversations,
		messages:      messages,
		logger:        logger,
	}
}

// PlatformStats collects the current snapshot
func (s *StatsService) PlatformStats(ctx context.Context) (*admin.PlatformStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "admin", "platform_stats")
	var err error
	defer func() { telemetry.End(span, err) }()

	stats := &admin.PlatformStats{}

	var roles map[identity.Role]int64
	if roles, err = s.profiles.CountByRole(ctx); err != nil {
		err = fmt.Errorf("count users: %w", err)
		return nil, err
	}
	stats.UsersByRole = stringKeys(roles)

	var props map[listing.PropertyStatus]int64
	if props, err = s.properties.CountByStatus(ctx); err != nil {
		err = fmt.Errorf("count properties: %w", err)
		return nil, err
	}
	stats.PropertiesByStatus = stringKeys(props)

	var apps map[leasing.ApplicationStatus]int64
	if apps, err = s.applications.CountByStatus(ctx); err != nil {
		err = fmt.Errorf("count applications: %w", err)
		return nil, err
	}
	stats.ApplicationsByStatus = stringKeys(apps)

	if stats.SucceededPayments, stats.PaymentVolume, err = s.payments.SucceededTotals(ctx); err != nil {
		err = fmt.Errorf("sum payments: %w", err)
		return nil, err
	}
	if stats.EscrowHeld, err = s.escrows.HeldTotal(ctx); err != nil {
		err = fmt.Errorf("sum escrow: %w", err)
		return nil, err
	}
	if stats.ActiveAlerts, err = s.alerts.CountActive(ctx); err != nil {
		err = fmt.Errorf("count alerts: %w", err)
		return nil, err
	}
	if stats.Conversations, err = s.conversations.Count(ctx); err != nil {
		err = fmt.Errorf("count conversations: %w", err)
		return nil, err
	}
	if stats.Messages, err = s.messages.Count(ctx); err != nil {
		err = fmt.Errorf("count messages: %w", err)
		return nil, err
	}
	return stats, nil
}

// Stats returns the dashboard view of PlatformStats
func (s *StatsService) Stats(ctx context.Context) (*StatsResult, error) {
	stats, err := s.PlatformStats(ctx)
	if err != nil {
		s.logger.Error("Failed to collect platform stats", zap.Error(err))
		return nil, err
	}
	return &StatsResult{
		Users:         CountBreakdown{Total: stats.TotalUsers(), By: stats.UsersByRole},
		Properties:    CountBreakdown{Total: stats.TotalProperties(), By: stats.PropertiesByStatus},
		Applications:  CountBreakdown{Total: stats.TotalApplications(), By: stats.ApplicationsByStatus},
		Payments:      PaymentSummary{Succeeded: stats.SucceededPayments, Volume: stats.PaymentVolume},
		EscrowHeld:    stats.EscrowHeld,
		ActiveAlerts:  stats.ActiveAlerts,
		Conversations: stats.Conversations,
		Messages:      stats.Messages,
	}, nil
}

func stringKeys[K ~string](m map[K]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
