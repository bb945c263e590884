package domain

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Immutable WGS84 coordinates (longitude, latitude) in decimal degrees.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

func (c Coordinates) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Valid reports whether both components are finite and inside WGS84 bounds.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lon) || math.IsNaN(c.Lat) {
		return false
	}
	return c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// GreatCircleKm returns the haversine distance between two coordinates in kilometres.
func GreatCircleKm(a, b Coordinates) float64 {
	return geo.DistanceHaversine(a.Point(), b.Point()) / 1000
}

// Interpolate returns the point at fraction f of the straight segment a->b.
func Interpolate(a, b Coordinates, f float64) Coordinates {
	return Coordinates{
		Lon: a.Lon + (b.Lon-a.Lon)*f,
		Lat: a.Lat + (b.Lat-a.Lat)*f,
	}
}

// GeocodeResult is a resolved place name. Confidence is 0-100.
type GeocodeResult struct {
	Query      string      `json:"query"`
	Label      string      `json:"label"`
	Coord      Coordinates `json:"coord"`
	Country    string      `json:"country"`
	Confidence int         `json:"confidence"`
	Source     Source      `json:"source"`
}
