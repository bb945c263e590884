package ports

import (
	"context"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/budget"
)

// Contract for per-source request quotas.
type Budget interface {
	// Admit count calls against source, or report false without side effects.
	TryReserve(ctx context.Context, source string, count int) bool
	Snapshot(ctx context.Context) []budget.Usage
}

// Optional third-party carrier pricing, looked up alongside the route.
type PriceQuoter interface {
	Quotes(ctx context.Context, origin, destination string, vehicle domain.VehicleProfile) ([]domain.PriceQuote, error)
}
