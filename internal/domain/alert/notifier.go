package alert

import (
	"context"

	"github.com/rentnest/backend/internal/domain/listing"
)

// MatchNotice tells an alert owner about a new listing
type MatchNotice struct {
	RecipientEmail string
	RecipientName  string
	AlertName      string
	Property       listing.Property
}

// Notifier delivers match notices; implementations may queue delivery
type Notifier interface {
	NotifyMatch(ctx context.Context, notice MatchNotice) error
}
