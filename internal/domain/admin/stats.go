package admin

import (
	"github.com/shopspring/decimal"
)

// PlatformStats is the admin dashboard snapshot
type PlatformStats struct {
	UsersByRole          map[string]int64
	PropertiesByStatus   map[string]int64
	ApplicationsByStatus map[string]int64
	SucceededPayments    int64
	PaymentVolume        decimal.Decimal
	EscrowHeld           decimal.Decimal
	ActiveAlerts         int64
	Conversations        int64
	Messages             int64
}

// TotalUsers sums the per-role counts
func (s PlatformStats) TotalUsers() int64 {
	return sum(s.UsersByRole)
}

// TotalProperties sums the per-status counts
func (s PlatformStats) TotalProperties() int64 {
	return sum(s.PropertiesByStatus)
}

// TotalApplications sums the per-status counts
func (s PlatformStats) TotalApplications() int64 {
	return sum(s.ApplicationsByStatus)
}

func sum(m map[string]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}
