package services

import (
	"context"
	"errors"
	"freight-quote-service/internal/adapters/mock"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/obs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeline struct {
	orchestrator *QuoteOrchestrator
	caches       *Caches
	router       *mock.RouteProvider
	tolls        *mock.TollProvider
}

func newPipeline(t *testing.T, live bool) pipeline {
	t.Helper()

	clock := newClock()
	caches := NewCaches(0, nil, clock.Now)
	b := newBudget(clock)
	p := pipeline{caches: caches}

	geoDeps := GeoRouterDeps{Budget: b, Caches: caches, Logger: obs.Discard()}
	tollDeps := TollCalculatorDeps{Budget: b, Caches: caches, Logger: obs.Discard()}
	restrictionDeps := RestrictionAnalyzerDeps{Budget: b, Caches: caches, Logger: obs.Discard()}
	if live {
		p.router = &mock.RouteProvider{Result: madridParisDirections()}
		p.tolls = madridParisTolls()
		geoDeps.Geocoder = madridParisGeocoder()
		geoDeps.Router = p.router
		tollDeps.Provider = p.tolls
		restrictionDeps.Holidays = &mock.HolidayProvider{Calendars: christmasCalendars("ES", "FR")}
	}

	o, err := NewQuoteOrchestrator(QuoteOrchestratorDeps{
		Geo:          NewGeoRouter(geoDeps),
		Tolls:        NewTollCalculator(tollDeps),
		Restrictions: NewRestrictionAnalyzer(restrictionDeps),
		Logger:       obs.Discard(),
		Now:          clock.Now,
	})
	require.NoError(t, err)
	p.orchestrator = o
	return p
}

func TestBuildQuoteInputsOffline(t *testing.T) {
	p := newPipeline(t, false)

	got, err := p.orchestrator.BuildQuoteInputs(t.Context(), "Madrid", "París", domain.DefaultVehicle(), "2026-03-04")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFallback, got.Route.Source)
	assert.Equal(t, []string{"ES", "FR"}, got.Route.TransitCountries)
	assert.Equal(t, domain.SourceFallback, got.Toll.Source)
	assert.InDelta(t, breakdownSum(got.Toll), got.Toll.TotalCostEUR, 0.01)
	assert.Equal(t, min(got.Route.Confidence, got.Toll.Confidence, got.Restrictions.Confidence), got.OverallConfidence)
	assert.Equal(t, "2026-03-04", got.PickupDate)
	assert.Greater(t, got.Delivery.Estimated, got.PickupDate)
	assert.GreaterOrEqual(t, got.Delivery.TransitDays, 1)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, 7*24*time.Hour, got.ValidUntil.Sub(got.GeneratedAt))
	assert.NotNil(t, got.PriceQuotes)
}

func TestBuildQuoteInputsLive(t *testing.T) {
	p := newPipeline(t, true)

	got, err := p.orchestrator.BuildQuoteInputs(t.Context(), "Madrid", "París", domain.DefaultVehicle(), "2026-12-25")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceLive, got.Route.Source)
	assert.Equal(t, domain.SourceLive, got.Toll.Source)
	assert.Equal(t, 92, got.Toll.Confidence)
	assert.Equal(t, restrictionsConf, got.Restrictions.Confidence)
	assert.Equal(t, 90, got.OverallConfidence)
	assert.Equal(t, 2, got.Restrictions.Summary.Critical)
	assert.GreaterOrEqual(t, got.Delivery.DelayDays, holidayDelayDays)

	// tolls are priced on the route the first stage produced
	assert.Equal(t, madrid, p.tolls.LastRequest().From)
	assert.Equal(t, paris, p.tolls.LastRequest().To)
}

func TestBuildQuoteInputsRejectsBadInput(t *testing.T) {
	p := newPipeline(t, false)
	heavy := domain.DefaultVehicle()
	heavy.WeightTonnes = 0

	tests := []struct {
		name        string
		origin      string
		destination string
		vehicle     domain.VehicleProfile
		date        string
	}{
		{"empty origin", "", "París", domain.DefaultVehicle(), "2026-03-04"},
		{"blank destination", "Madrid", "   ", domain.DefaultVehicle(), "2026-03-04"},
		{"bad date", "Madrid", "París", domain.DefaultVehicle(), "04/03/2026"},
		{"missing date", "Madrid", "París", domain.DefaultVehicle(), ""},
		{"zero weight", "Madrid", "París", heavy, "2026-03-04"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.orchestrator.BuildQuoteInputs(t.Context(), tt.origin, tt.destination, tt.vehicle, tt.date)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestBuildQuoteInputsAcceptsRFC3339(t *testing.T) {
	p := newPipeline(t, false)

	got, err := p.orchestrator.BuildQuoteInputs(t.Context(), "Madrid", "París", domain.DefaultVehicle(), "2026-03-01T10:00:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", got.PickupDate)
}

func TestBuildQuoteInputsAbsorbsPriceFailures(t *testing.T) {
	p := newPipeline(t, false)
	p.orchestrator.prices = &mock.PriceQuoter{Err: errors.New("marketplace down")}

	got, err := p.orchestrator.BuildQuoteInputs(t.Context(), "Madrid", "París", domain.DefaultVehicle(), "2026-03-04")
	require.NoError(t, err)
	assert.Empty(t, got.PriceQuotes)
	assert.NotNil(t, got.PriceQuotes)
}

func TestBuildQuoteInputsIncludesPriceQuotes(t *testing.T) {
	p := newPipeline(t, false)
	p.orchestrator.prices = &mock.PriceQuoter{Offers: []domain.PriceQuote{{Provider: "acme", PriceEUR: 1450, Days: 2}}}

	got, err := p.orchestrator.BuildQuoteInputs(t.Context(), "Madrid", "París", domain.DefaultVehicle(), "2026-03-04")
	require.NoError(t, err)
	require.Len(t, got.PriceQuotes, 1)
	assert.Equal(t, "acme", got.PriceQuotes[0].Provider)
}

func TestAbandonedRequestStillFillsCache(t *testing.T) {
	p := newPipeline(t, true)
	p.router.Delay = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := p.orchestrator.BuildQuoteInputs(ctx, "Madrid", "París", domain.DefaultVehicle(), "2026-03-04")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	require.Eventually(t, func() bool { return p.caches.Route.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, p.router.Calls())
}

func TestRouteAlerts(t *testing.T) {
	wednesday := day(2026, 3, 4)
	sunday := day(2026, 3, 1)

	tests := []struct {
		name  string
		route domain.RouteResult
		date  time.Time
		want  int
	}{
		{"short live route", domain.RouteResult{DistanceKm: 600, TransitCountries: []string{"ES", "FR"}, Confidence: 95}, wednesday, 0},
		{"long complex route", domain.RouteResult{DistanceKm: 2600, TransitCountries: []string{"ES", "FR", "DE", "PL"}, Confidence: 90}, wednesday, 2},
		{"swiss alpine", domain.RouteResult{DistanceKm: 1500, TransitCountries: []string{"FR", "CH", "IT"}, Confidence: 90}, wednesday, 2},
		{"weekend germany", domain.RouteResult{DistanceKm: 900, TransitCountries: []string{"FR", "DE"}, Confidence: 90}, sunday, 1},
		{"estimated", domain.RouteResult{DistanceKm: 900, TransitCountries: []string{"ES", "FR"}, Confidence: 70}, wednesday, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, RouteAlerts(tt.route, tt.date), tt.want)
		})
	}
}

func TestNewQuoteOrchestratorRequiresComponents(t *testing.T) {
	_, err := NewQuoteOrchestrator(QuoteOrchestratorDeps{})
	assert.Error(t, err)
}
