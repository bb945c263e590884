package services

import (
	"freight-quote-service/internal/domain"
	"time"
)

// ruleInput is what a static country rule can look at.
type ruleInput struct {
	date    time.Time
	vehicle domain.VehicleProfile
}

func (in ruleInput) sunday() bool   { return in.date.Weekday() == time.Sunday }
func (in ruleInput) saturday() bool { return in.date.Weekday() == time.Saturday }

type countryRule struct {
	when     func(ruleInput) bool
	typ      domain.AlertType
	severity domain.Severity
	message  string
}

func always(ruleInput) bool { return true }

func hazardous(in ruleInput) bool { return in.vehicle.Hazardous }

func heavierThan(t float64) func(ruleInput) bool {
	return func(in ruleInput) bool { return in.vehicle.WeightTonnes > t }
}

var countryRules = map[string][]countryRule{
	"DE": {
		{ruleInput.sunday, domain.AlertWeekendBan, domain.SeverityCritical, "Germany: trucks banned on Sundays (00:00-22:00)"},
		{ruleInput.saturday, domain.AlertWeekendBan, domain.SeverityCritical, "Germany: trucks banned on Saturdays (22:00-24:00)"},
		{heavierThan(40), domain.AlertWeight, domain.SeverityCritical, "Germany: trucks over 40 t need a special permit"},
		{hazardous, domain.AlertHazmat, domain.SeverityCritical, "Germany: strict ADR restrictions on motorways for dangerous goods"},
	},
	"FR": {
		{ruleInput.sunday, domain.AlertWeekendBan, domain.SeverityWarning, "France: Sunday truck restrictions on some routes"},
		{heavierThan(7.5), domain.AlertWeight, domain.SeverityWarning, "France: extra motorway restrictions for vehicles over 7.5 t"},
		{hazardous, domain.AlertTunnel, domain.SeverityCritical, "France: dangerous goods banned in the Mont Blanc and Fréjus tunnels"},
	},
	"ES": {
		{ruleInput.sunday, domain.AlertWeekendBan, domain.SeverityWarning, "Spain: check Sunday truck restrictions on specific roads"},
		{hazardous, domain.AlertHazmat, domain.SeverityWarning, "Spain: ADR documentation required for dangerous goods"},
	},
	"IT": {
		{hazardous, domain.AlertTunnel, domain.SeverityCritical, "Italy: dangerous goods banned in alpine tunnels (Mont Blanc, Great St Bernard)"},
	},
	"CH": {
		{always, domain.AlertWarning, domain.SeverityWarning, "Switzerland: vignette required, night restrictions in tunnels"},
		{ruleInput.sunday, domain.AlertWeekendBan, domain.SeverityCritical, "Switzerland: trucks banned on Sundays (00:00-22:00)"},
	},
	"AT": {
		{ruleInput.sunday, domain.AlertWeekendBan, domain.SeverityCritical, "Austria: trucks banned on Sundays (00:00-22:00)"},
		{ruleInput.saturday, domain.AlertWeekendBan, domain.SeverityCritical, "Austria: trucks banned on Saturdays (15:00-24:00)"},
	},
}

func ruleAlerts(country string, in ruleInput) []domain.RestrictionAlert {
	var out []domain.RestrictionAlert
	for _, r := range countryRules[country] {
		if !r.when(in) {
			continue
		}
		out = append(out, domain.RestrictionAlert{
			Type:     r.typ,
			Severity: r.severity,
			Country:  country,
			Message:  r.message,
			Source:   "country-rules",
		})
	}
	return out
}

var sundaySeverity = map[string]domain.Severity{
	"DE": domain.SeverityCritical, "AT": domain.SeverityCritical, "CH": domain.SeverityCritical,
	"FR": domain.SeverityWarning, "ES": domain.SeverityWarning, "IT": domain.SeverityWarning,
}

var saturdayBans = map[string]string{
	"DE": "Germany: Saturday truck ban from 22:00",
	"AT": "Austria: Saturday truck ban from 15:00",
}

// weekendAlerts adds the generic weekend reminder for every transit country.
func weekendAlerts(countries []string, date time.Time) []domain.RestrictionAlert {
	var out []domain.RestrictionAlert
	day := date.Format(time.DateOnly)
	for _, c := range countries {
		switch date.Weekday() {
		case time.Sunday:
			sev, ok := sundaySeverity[c]
			if !ok {
				sev = domain.SeverityInfo
			}
			out = append(out, domain.RestrictionAlert{
				Type:     domain.AlertWeekendBan,
				Severity: sev,
				Country:  c,
				Message:  c + ": check Sunday truck circulation rules",
				Source:   "weekend-rules",
				Date:     day,
			})
		case time.Saturday:
			if msg, ok := saturdayBans[c]; ok {
				out = append(out, domain.RestrictionAlert{
					Type:     domain.AlertWeekendBan,
					Severity: domain.SeverityCritical,
					Country:  c,
					Message:  msg,
					Source:   "weekend-rules",
					Date:     day,
				})
			}
		}
	}
	return out
}

// fixedHolidays is used when no holiday feed answer is available.
var fixedHolidays = []struct {
	month time.Month
	day   int
	name  string
}{
	{time.January, 1, "New Year's Day"},
	{time.May, 1, "Labour Day"},
	{time.December, 25, "Christmas Day"},
	{time.December, 26, "St. Stephen's Day"},
}

func builtinHolidays(year int) []domain.Holiday {
	out := make([]domain.Holiday, 0, len(fixedHolidays))
	for _, h := range fixedHolidays {
		out = append(out, domain.Holiday{
			Date:      time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC),
			Name:      h.name,
			LocalName: h.name,
		})
	}
	return out
}

// trafficSeverity maps DATEX II severities onto alert severities.
func trafficSeverity(s string) domain.Severity {
	switch s {
	case "highest", "high":
		return domain.SeverityCritical
	case "low", "lowest":
		return domain.SeverityInfo
	default:
		return domain.SeverityWarning
	}
}
