package ports

import (
	"context"
	"freight-quote-service/internal/domain"
)

// One candidate match returned by a geocoding provider.
type GeocodeCandidate struct {
	Label       string
	Name        string
	Layer       string // "locality", "region", ...
	Confidence  float64
	CountryCode string
	CountryName string
	Coord       domain.Coordinates
}

// Contract for resolving a free-text place name to candidate coordinates.
// focus biases ranking toward results near a known point.
type Geocoder interface {
	Search(ctx context.Context, place string, focus domain.Coordinates) ([]GeocodeCandidate, error)
}

// Raw heavy-vehicle route as reported by the routing provider.
// Countries is empty when the provider sent no usable country metadata.
type Directions struct {
	DistanceKm          float64
	DurationSeconds     float64
	Geometry            []domain.Coordinates
	Countries           []string
	ExtrasPresent       int
	TollSections        int
	RestrictionSegments int
}

// Contract for computing a heavy-vehicle route between two coordinates.
type RouteProvider interface {
	Directions(ctx context.Context, from, to domain.Coordinates) (Directions, error)
}

// Persistent store for resolved place names, shared across restarts.
type GeocodeStore interface {
	GetMany(ctx context.Context, places []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
