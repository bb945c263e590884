package services

import (
	"freight-quote-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduleDeliveryMadridParis(t *testing.T) {
	route := domain.RouteResult{DistanceKm: 1271, TransitCountries: []string{"ES", "FR"}}

	got := ScheduleDelivery(day(2026, 3, 4), route, domain.DefaultVehicle(), nil)

	assert.Equal(t, domain.DeliveryWindow{
		Estimated:    "2026-03-07",
		Earliest:     "2026-03-06",
		Latest:       "2026-03-08",
		TransitDays:  3,
		BusinessDays: 3,
		DelayDays:    0,
		Confidence:   deliveryConf,
	}, got)
}

func TestScheduleDeliveryAddsRestrictionAndHolidayDelays(t *testing.T) {
	route := domain.RouteResult{DistanceKm: 600, TransitCountries: []string{"ES"}}
	alerts := []domain.RestrictionAlert{
		{Type: domain.AlertWeekendBan, Severity: domain.SeverityWarning, Country: "ES"},
		{Type: domain.AlertWarning, Severity: domain.SeverityInfo, Country: "ES"},
		{Type: domain.AlertHoliday, Severity: domain.SeverityCritical, Country: "ES", Date: "2026-12-25"},
		{Type: domain.AlertHoliday, Severity: domain.SeverityCritical, Country: "FR", Date: "2026-12-25"},
		{Type: domain.AlertUpcomingHoliday, Severity: domain.SeverityInfo, Country: "ES", Date: "2027-01-06"},
	}

	got := ScheduleDelivery(day(2026, 12, 25), route, domain.DefaultVehicle(), alerts)

	assert.Equal(t, 2, got.TransitDays)
	assert.InDelta(t, 1.0, got.DelayDays, 0.001)
	assert.Equal(t, "2026-12-27", got.Estimated)
	assert.Equal(t, "2026-12-26", got.Earliest)
	assert.Equal(t, "2026-12-28", got.Latest)
	assert.Equal(t, 1, got.BusinessDays)
}

func TestScheduleDeliveryHazardousLongHaul(t *testing.T) {
	route := domain.RouteResult{DistanceKm: 3000, TransitCountries: []string{"ES", "FR", "DE", "PL"}}
	v := domain.DefaultVehicle()
	v.Hazardous = true

	got := ScheduleDelivery(day(2026, 3, 2), route, v, nil)

	assert.Equal(t, 9, got.TransitDays)
	assert.Equal(t, "2026-03-11", got.Estimated)
	assert.Equal(t, deliveryConf-8, got.Confidence)
}

func TestScheduleDeliveryNeverUnderOneDay(t *testing.T) {
	got := ScheduleDelivery(day(2026, 3, 4), domain.RouteResult{}, domain.DefaultVehicle(), nil)

	assert.Equal(t, 1, got.TransitDays)
	assert.Equal(t, "2026-03-05", got.Estimated)
	assert.Equal(t, "2026-03-04", got.Earliest)
}

func TestScheduleDeliveryConfidenceFloor(t *testing.T) {
	route := domain.RouteResult{DistanceKm: 12000, TransitCountries: []string{"PT", "ES", "FR", "DE", "PL"}}

	got := ScheduleDelivery(day(2026, 3, 4), route, domain.DefaultVehicle(), nil)

	assert.Greater(t, got.TransitDays, 20)
	assert.Equal(t, minDeliveryConf, got.Confidence)
}
