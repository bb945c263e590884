package services

import (
	"freight-quote-service/internal/adapters/mock"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/budget"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	madrid = domain.Coordinates{Lon: -3.7038, Lat: 40.4168}
	paris  = domain.Coordinates{Lon: 2.3522, Lat: 48.8566}
)

func newBudget(clock *fakeClock) *budget.Tracker {
	return budget.NewTracker(budget.DefaultLimits(), budget.WithClock(clock.Now), budget.WithLogger(obs.Discard()))
}

func exhaustedBudget(sources ...string) *budget.Tracker {
	limits := make([]budget.Limit, 0, len(sources))
	for _, s := range sources {
		limits = append(limits, budget.Limit{Source: s, Window: budget.Daily, Quota: 0})
	}
	return budget.NewTracker(limits, budget.WithLogger(obs.Discard()))
}

func madridParisGeocoder() *mock.Geocoder {
	return mock.NewGeocoder(map[string][]ports.GeocodeCandidate{
		"madrid": {{Label: "Madrid, Spain", Name: "Madrid", Layer: "locality", Confidence: 1, CountryCode: "ES", Coord: madrid}},
		"parís":  {{Label: "Paris, France", Name: "Paris", Layer: "locality", Confidence: 1, CountryCode: "FR", Coord: paris}},
	})
}

func madridParisDirections() ports.Directions {
	return ports.Directions{
		DistanceKm:      1271.4,
		DurationSeconds: 14.5 * 3600,
		Geometry: []domain.Coordinates{
			madrid,
			{Lon: -1.4, Lat: 43.3},
			{Lon: 0.3, Lat: 45.9},
			paris,
		},
		Countries:     []string{"ES", "FR"},
		ExtrasPresent: 3,
		TollSections:  6,
	}
}

func madridParisRoute() domain.RouteResult {
	d := madridParisDirections()
	return liveRoute("Madrid", "París", located(madrid, "ES"), located(paris, "FR"), d)
}

func located(c domain.Coordinates, country string) domain.GeocodeResult {
	return domain.GeocodeResult{Coord: c, Country: country, Source: domain.SourceLive}
}

func findAlert(alerts []domain.RestrictionAlert, country, source string) (domain.RestrictionAlert, bool) {
	for _, a := range alerts {
		if a.Country == country && a.Source == source {
			return a, true
		}
	}
	return domain.RestrictionAlert{}, false
}
