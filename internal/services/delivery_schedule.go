package services

import (
	"freight-quote-service/internal/domain"
	"math"
	"time"
)

const (
	deliveryKmPerDay   = 600.0
	hazardousDelay     = 1.3
	borderCrossingCost = 0.05
	holidayDelayDays   = 0.5
	otherAlertDelay    = 0.1
	deliveryWindowDays = 1

	deliveryConf    = 85
	minDeliveryConf = 60
)

// border and paperwork complexity per country; unlisted countries count 1.0
var countryTransitFactor = map[string]float64{
	"FR": 1.05, "DE": 1.1, "IT": 1.15, "PL": 1.2, "NL": 1.05,
	"BE": 1.05, "AT": 1.1, "CH": 1.25,
}

var alertDelayDays = map[domain.AlertType]float64{
	domain.AlertWeekendBan: 0.5,
	domain.AlertTunnel:     0.4,
	domain.AlertWeight:     0.2,
}

// ScheduleDelivery estimates when a load picked up on pickup arrives.
// Restriction alerts above info severity and holidays falling inside the
// trip each push the estimate back.
func ScheduleDelivery(
	pickup time.Time,
	route domain.RouteResult,
	vehicle domain.VehicleProfile,
	alerts []domain.RestrictionAlert,
) domain.DeliveryWindow {
	pickup = time.Date(pickup.Year(), pickup.Month(), pickup.Day(), 0, 0, 0, 0, time.UTC)

	days := math.Max(route.DistanceKm, 0) / deliveryKmPerDay
	if vehicle.Hazardous {
		days *= hazardousDelay
	}
	days *= transitFactor(route.TransitCountries)
	base := days

	for _, a := range alerts {
		if a.Type == domain.AlertHoliday || a.Type == domain.AlertUpcomingHoliday || a.Severity == domain.SeverityInfo {
			continue
		}
		if d, ok := alertDelayDays[a.Type]; ok {
			days += d
		} else {
			days += otherAlertDelay
		}
	}

	// one delay per holiday date, however many countries observe it
	horizon := pickup.AddDate(0, 0, int(math.Ceil(days))).Format(time.DateOnly)
	from := pickup.Format(time.DateOnly)
	seen := map[string]struct{}{}
	for _, a := range alerts {
		if a.Type != domain.AlertHoliday && a.Type != domain.AlertUpcomingHoliday {
			continue
		}
		if a.Date < from || a.Date > horizon {
			continue
		}
		if _, ok := seen[a.Date]; ok {
			continue
		}
		seen[a.Date] = struct{}{}
		days += holidayDelayDays
	}

	transit := max(int(math.Ceil(math.Round(days*10)/10)), 1)
	estimated := pickup.AddDate(0, 0, transit)

	return domain.DeliveryWindow{
		Estimated:    estimated.Format(time.DateOnly),
		Earliest:     estimated.AddDate(0, 0, -deliveryWindowDays).Format(time.DateOnly),
		Latest:       estimated.AddDate(0, 0, deliveryWindowDays).Format(time.DateOnly),
		TransitDays:  transit,
		BusinessDays: businessDays(pickup, estimated),
		DelayDays:    math.Round((days-base)*10) / 10,
		Confidence:   domain.ClampInt(deliveryConf-max(0, (transit-5)*2), minDeliveryConf, deliveryConf),
	}
}

// transitFactor averages the country factors and adds 5% per border crossed.
func transitFactor(countries []string) float64 {
	countries = domain.DedupeCountries(countries)
	if len(countries) <= 1 {
		return 1
	}
	sum := 0.0
	for _, c := range countries {
		f, ok := countryTransitFactor[c]
		if !ok {
			f = 1
		}
		sum += f
	}
	crossings := float64(len(countries) - 1)
	return sum / float64(len(countries)) * (1 + crossings*borderCrossingCost)
}

// businessDays counts weekdays in [from, to).
func businessDays(from, to time.Time) int {
	n := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}
