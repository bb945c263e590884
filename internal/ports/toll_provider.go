package ports

import (
	"context"
	"freight-quote-service/internal/domain"
)

type TollRequest struct {
	From    domain.Coordinates
	To      domain.Coordinates
	Vehicle domain.VehicleProfile
}

// One charged toll point or section.
type TollItem struct {
	Country string
	Name    string
	Road    string
	CostEUR float64
}

type TollQuote struct {
	Currency  string
	Countries []string
	TotalEUR  float64
	HasCosts  bool
	Items     []TollItem
}

// Contract for pricing tolls along a route for a given vehicle.
type TollProvider interface {
	Tolls(ctx context.Context, req TollRequest) (TollQuote, error)
}
