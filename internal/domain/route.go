package domain

import "math"

type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// RouteResult is a heavy-vehicle route between two geocoded places.
// DistanceKm is always positive and TransitCountries never empty.
type RouteResult struct {
	Origin           string        `json:"origin"`
	Destination      string        `json:"destination"`
	OriginCoord      Coordinates   `json:"originCoord"`
	DestCoord        Coordinates   `json:"destCoord"`
	DistanceKm       float64       `json:"distanceKm"`
	DurationMinutes  float64       `json:"durationMinutes"`
	TransitDays      int           `json:"estimatedTransitDays"`
	TransitCountries []string      `json:"transitCountries"`
	Geometry         []Coordinates `json:"geometry,omitempty"`
	TollSections     int           `json:"tollSections"`
	Restrictions     int           `json:"restrictionSegments"`
	Confidence       int           `json:"confidence"`
	Source           Source        `json:"source"`
}

func (r RouteResult) HasGeometry() bool { return len(r.Geometry) >= 2 }

func (r RouteResult) Crosses(country string) bool {
	for _, c := range r.TransitCountries {
		if c == country {
			return true
		}
	}
	return false
}

const (
	drivingHoursPerDay = 9
	minTransitDays     = 1
	maxTransitDays     = 7
)

// TransitDays applies the EU driving-hours model: 9 effective hours a day,
// one extra day past 1500 km and another past 2500 km, clamped to [1,7].
func TransitDays(drivingHours, distanceKm float64) int {
	days := int(math.Ceil(drivingHours / drivingHoursPerDay))
	if distanceKm > 1500 {
		days++
	}
	if distanceKm > 2500 {
		days++
	}
	return ClampInt(days, minTransitDays, maxTransitDays)
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
