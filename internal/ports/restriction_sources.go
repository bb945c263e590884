package ports

import (
	"context"
	"freight-quote-service/internal/domain"
)

// Contract for a country's public holiday calendar.
type HolidayProvider interface {
	PublicHolidays(ctx context.Context, country string, year int) ([]domain.Holiday, error)
}

// Contract for a live traffic-situation feed covering one country.
type TrafficFeed interface {
	Country() string
	Situations(ctx context.Context) ([]domain.TrafficSituation, error)
}
