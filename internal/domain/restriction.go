package domain

import "time"

type AlertType string

const (
	AlertWeekendBan      AlertType = "weekend_ban"
	AlertHoliday         AlertType = "holiday"
	AlertHazmat          AlertType = "hazmat_restriction"
	AlertWeight          AlertType = "weight_restriction"
	AlertTunnel          AlertType = "tunnel_restriction"
	AlertTraffic         AlertType = "traffic"
	AlertUpcomingHoliday AlertType = "upcoming_holiday"
	AlertWarning         AlertType = "warning"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type RestrictionAlert struct {
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Country  string    `json:"country"`
	Message  string    `json:"message"`
	Source   string    `json:"source"`
	Date     string    `json:"date,omitempty"`
}

type AlertSummary struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

type RestrictionsResult struct {
	Alerts     []RestrictionAlert `json:"alerts"`
	Summary    AlertSummary       `json:"summary"`
	Confidence int                `json:"confidence"`
	Degraded   []string           `json:"degradedCountries,omitempty"`
}

// Summarize counts alerts per severity.
func Summarize(alerts []RestrictionAlert) AlertSummary {
	var s AlertSummary
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityWarning:
			s.Warning++
		default:
			s.Info++
		}
	}
	return s
}

type Holiday struct {
	Date      time.Time `json:"date"`
	Name      string    `json:"name"`
	LocalName string    `json:"localName"`
}

// TrafficSituation is one record from a live traffic feed.
type TrafficSituation struct {
	ID       string
	Comment  string
	Severity string
	Start    time.Time
	End      time.Time
}
