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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func routeThrough(countries ...string) domain.RouteResult {
	return domain.RouteResult{DistanceKm: 1000, TransitCountries: countries, Confidence: 90, Source: domain.SourceLive}
}

func christmasCalendars(countries ...string) map[string][]domain.Holiday {
	out := map[string][]domain.Holiday{}
	for _, c := range countries {
		out[c] = []domain.Holiday{
			{Date: day(2026, 12, 25), Name: "Christmas Day", LocalName: "Navidad"},
			{Date: day(2026, 12, 8), Name: "Immaculate Conception", LocalName: "Inmaculada Concepción"},
		}
	}
	return out
}

func newAnalyzer(d RestrictionAnalyzerDeps) *RestrictionAnalyzer {
	d.Logger = obs.Discard()
	return NewRestrictionAnalyzer(d)
}

func TestSundayWeekendSeverityByCountry(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}})
	sunday := day(2026, 3, 1)

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES", "FR", "DE"), domain.DefaultVehicle(), sunday)

	de, ok := findAlert(got.Alerts, "DE", "weekend-rules")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityCritical, de.Severity)
	assert.Equal(t, domain.AlertWeekendBan, de.Type)

	es, ok := findAlert(got.Alerts, "ES", "weekend-rules")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, es.Severity)

	assert.Equal(t, restrictionsConf, got.Confidence)
	assert.Empty(t, got.Degraded)
}

func TestSaturdayBansOnlyGermanyAndAustria(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}})
	saturday := day(2026, 3, 7)

	got := a.GetRouteRestrictions(t.Context(), routeThrough("FR", "DE", "AT"), domain.DefaultVehicle(), saturday)

	_, ok := findAlert(got.Alerts, "FR", "weekend-rules")
	assert.False(t, ok)
	at, ok := findAlert(got.Alerts, "AT", "weekend-rules")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityCritical, at.Severity)
}

func TestChristmasIsCritical(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{Calendars: christmasCalendars("ES", "FR")}})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES", "FR"), domain.DefaultVehicle(), day(2026, 12, 25))

	critical := 0
	for _, al := range got.Alerts {
		if al.Type == domain.AlertHoliday && al.Severity == domain.SeverityCritical {
			critical++
		}
	}
	assert.Equal(t, 2, critical)
}

func TestChristmasIsCriticalWithoutHolidayFeed(t *testing.T) {
	feed := &mock.HolidayProvider{Fail: map[string]bool{"IT": true}}
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: feed})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("IT"), domain.DefaultVehicle(), day(2026, 12, 25))

	h, ok := findAlert(got.Alerts, "IT", "holidays")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityCritical, h.Severity)
	assert.Equal(t, degradedRestrictionsConf, got.Confidence)
	assert.Equal(t, []string{"IT"}, got.Degraded)
}

func TestMinorHolidayIsWarningAndUpcomingIsInfo(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{Calendars: christmasCalendars("ES")}})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES"), domain.DefaultVehicle(), day(2026, 12, 8))
	h, ok := findAlert(got.Alerts, "ES", "holidays")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, h.Severity)

	got = a.GetRouteRestrictions(t.Context(), routeThrough("ES"), domain.DefaultVehicle(), day(2026, 12, 22))
	h, ok = findAlert(got.Alerts, "ES", "holidays")
	require.True(t, ok)
	assert.Equal(t, domain.AlertUpcomingHoliday, h.Type)
	assert.Equal(t, domain.SeverityInfo, h.Severity)
	assert.Equal(t, "2026-12-25", h.Date)
}

func TestUpcomingHolidayAcrossYearEnd(t *testing.T) {
	feed := &mock.HolidayProvider{Calendars: map[string][]domain.Holiday{
		"FR": {{Date: day(2027, 1, 1), Name: "New Year's Day"}},
	}}
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: feed})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("FR"), domain.DefaultVehicle(), day(2026, 12, 30))

	h, ok := findAlert(got.Alerts, "FR", "holidays")
	require.True(t, ok)
	assert.Equal(t, domain.AlertUpcomingHoliday, h.Type)
	assert.Equal(t, 2, feed.Calls())
}

func TestCountryRulesFollowVehicle(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}})
	v := domain.DefaultVehicle()
	v.Hazardous = true
	v.WeightTonnes = 44

	got := a.GetRouteRestrictions(t.Context(), routeThrough("DE", "IT"), v, day(2026, 3, 4))

	types := map[domain.AlertType]int{}
	for _, al := range got.Alerts {
		types[al.Type]++
	}
	assert.Equal(t, 1, types[domain.AlertHazmat])
	assert.Equal(t, 1, types[domain.AlertTunnel])
	assert.Equal(t, 1, types[domain.AlertWeight])
	assert.Zero(t, types[domain.AlertWeekendBan])
}

func TestAlpineTunnelBansAreTunnelAlerts(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}})
	v := domain.DefaultVehicle()
	v.Hazardous = true

	got := a.GetRouteRestrictions(t.Context(), routeThrough("FR", "IT"), v, day(2026, 3, 4))

	for _, country := range []string{"FR", "IT"} {
		al, ok := findAlertOfType(got.Alerts, country, domain.AlertTunnel)
		require.True(t, ok, country)
		assert.Equal(t, domain.SeverityCritical, al.Severity)
		assert.Contains(t, al.Message, "tunnel")
	}

	plain := a.GetRouteRestrictions(t.Context(), routeThrough("FR", "IT"), domain.DefaultVehicle(), day(2026, 3, 4))
	_, ok := findAlertOfType(plain.Alerts, "IT", domain.AlertTunnel)
	assert.False(t, ok)
}

func findAlertOfType(alerts []domain.RestrictionAlert, country string, typ domain.AlertType) (domain.RestrictionAlert, bool) {
	for _, a := range alerts {
		if a.Country == country && a.Type == typ {
			return a, true
		}
	}
	return domain.RestrictionAlert{}, false
}

func TestSwitzerlandAlwaysWarns(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("CH"), domain.DefaultVehicle(), day(2026, 3, 4))

	ch, ok := findAlert(got.Alerts, "CH", "country-rules")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityWarning, ch.Severity)
}

func TestTrafficFeedFiltersForTrucks(t *testing.T) {
	feed := &mock.TrafficFeed{Code: "ES", Items: []domain.TrafficSituation{
		{ID: "1", Comment: "Restricción para camión de más de 7,5 t en N-I", Severity: "high"},
		{ID: "2", Comment: "Obras en el carril derecho", Severity: "medium"},
		{ID: "3", Comment: "Vehicle restriction near Irún", Severity: "low"},
	}}
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}, Traffic: feed})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES", "FR"), domain.DefaultVehicle(), day(2026, 3, 4))

	var traffic []domain.RestrictionAlert
	for _, al := range got.Alerts {
		if al.Type == domain.AlertTraffic {
			traffic = append(traffic, al)
		}
	}
	require.Len(t, traffic, 2)
	assert.Equal(t, domain.SeverityCritical, traffic[0].Severity)
	assert.Equal(t, domain.SeverityInfo, traffic[1].Severity)
	assert.Equal(t, "ES", traffic[0].Country)
}

func TestTrafficFeedFailureDegrades(t *testing.T) {
	feed := &mock.TrafficFeed{Code: "ES", Err: errors.New("feed down")}
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{}, Traffic: feed})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES", "FR"), domain.DefaultVehicle(), day(2026, 3, 4))

	assert.Equal(t, degradedRestrictionsConf, got.Confidence)
	assert.Equal(t, []string{"ES"}, got.Degraded)
}

type panickyHolidays struct{ country string }

func (p panickyHolidays) PublicHolidays(_ context.Context, country string, _ int) ([]domain.Holiday, error) {
	if country == p.country {
		panic("malformed calendar")
	}
	return nil, nil
}

func TestCountryFailureIsIsolated(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: panickyHolidays{country: "FR"}})
	sunday := day(2026, 3, 1)

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES", "FR", "DE"), domain.DefaultVehicle(), sunday)

	fr, ok := findAlert(got.Alerts, "FR", "fallback")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityInfo, fr.Severity)
	assert.Contains(t, fr.Message, "FR")

	_, ok = findAlert(got.Alerts, "DE", "country-rules")
	assert.True(t, ok)
	assert.Equal(t, []string{"FR"}, got.Degraded)
	assert.Equal(t, degradedRestrictionsConf, got.Confidence)
}

func TestSummaryCountsEveryAlert(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: &mock.HolidayProvider{Calendars: christmasCalendars("DE")}})

	got := a.GetRouteRestrictions(t.Context(), routeThrough("ES", "FR", "DE", "AT", "CH"), domain.DefaultVehicle(), day(2026, 12, 27))

	s := got.Summary
	assert.Equal(t, len(got.Alerts), s.Critical+s.Warning+s.Info)
	assert.Equal(t, domain.Summarize(got.Alerts), s)
}

func TestCountryResultsAreCached(t *testing.T) {
	clock := newClock()
	feed := &mock.HolidayProvider{Calendars: christmasCalendars("ES")}
	a := newAnalyzer(RestrictionAnalyzerDeps{Holidays: feed, Caches: NewCaches(0, nil, clock.Now)})
	route := routeThrough("ES")

	a.GetRouteRestrictions(t.Context(), route, domain.DefaultVehicle(), day(2026, 3, 4))
	a.GetRouteRestrictions(t.Context(), route, domain.DefaultVehicle(), day(2026, 3, 4))
	assert.Equal(t, 1, feed.Calls())

	// a different date reuses the cached holiday calendar
	a.GetRouteRestrictions(t.Context(), route, domain.DefaultVehicle(), day(2026, 3, 5))
	assert.Equal(t, 1, feed.Calls())

	clock.Advance(25 * time.Hour)
	a.GetRouteRestrictions(t.Context(), route, domain.DefaultVehicle(), day(2026, 3, 4))
	assert.Equal(t, 2, feed.Calls())
}

func TestEmptyRouteIsLowConfidence(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{})

	got := a.GetRouteRestrictions(t.Context(), routeThrough(), domain.DefaultVehicle(), day(2026, 3, 4))
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, domain.UnknownCountry, got.Alerts[0].Country)
	assert.Equal(t, "fallback", got.Alerts[0].Source)
	assert.Equal(t, degradedRestrictionsConf, got.Confidence)
}

func TestUnknownRouteStillFlagsChristmas(t *testing.T) {
	a := newAnalyzer(RestrictionAnalyzerDeps{})

	got := a.GetRouteRestrictions(t.Context(), routeThrough(domain.UnknownCountry), domain.DefaultVehicle(), day(2026, 12, 25))

	h, ok := findAlert(got.Alerts, domain.UnknownCountry, "holidays")
	require.True(t, ok)
	assert.Equal(t, domain.AlertHoliday, h.Type)
	assert.Equal(t, domain.SeverityCritical, h.Severity)
	assert.Equal(t, "2026-12-25", h.Date)
	assert.Equal(t, 1, got.Summary.Critical)

	upcoming, ok := findAlertOfType(got.Alerts, domain.UnknownCountry, domain.AlertUpcomingHoliday)
	require.True(t, ok)
	assert.Equal(t, "2026-12-26", upcoming.Date)
	assert.Equal(t, degradedRestrictionsConf, got.Confidence)
}
