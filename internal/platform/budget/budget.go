// Package budget tracks per-source request quotas for external providers.
//
// Only the daily (or monthly) quota is a hard gate. The per-minute figure is
// tracked and reported but never blocks a call.
package budget

import (
	"time"
)

// Well-known provider sources.
const (
	SourceGeocoding  = "ors.geocoding"
	SourceDirections = "ors.directions"
	SourceTolls      = "tollguru"
	SourceHolidays   = "nager"
	SourceTraffic    = "datex"
)

type Window int

const (
	Daily Window = iota
	Monthly
)

func (w Window) String() string {
	if w == Monthly {
		return "monthly"
	}
	return "daily"
}

// Start returns the beginning of the UTC window containing t.
func (w Window) Start(t time.Time) time.Time {
	t = t.UTC()
	if w == Monthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the window containing t.
func (w Window) End(t time.Time) time.Time {
	s := w.Start(t)
	if w == Monthly {
		return s.AddDate(0, 1, 0)
	}
	return s.AddDate(0, 0, 1)
}

// Key is a compact label for the window containing t.
func (w Window) Key(t time.Time) string {
	if w == Monthly {
		return w.Start(t).Format("2006-01")
	}
	return w.Start(t).Format("2006-01-02")
}

// Limit configures one source.
type Limit struct {
	Source    string
	Window    Window
	Quota     int
	PerMinute int
}

// Usage is a point-in-time view of one budget.
type Usage struct {
	Source      string    `json:"source"`
	Window      string    `json:"window"`
	WindowStart time.Time `json:"windowStart"`
	Quota       int       `json:"quota"`
	Used        int       `json:"used"`
	Remaining   int       `json:"remaining"`
	PerMinute   int       `json:"perMinute"`
	Throttled   int       `json:"softThrottled"`
}

// DefaultLimits mirrors the free-tier contracts of the providers in use.
func DefaultLimits() []Limit {
	return []Limit{
		{Source: SourceDirections, Window: Daily, Quota: 2000, PerMinute: 40},
		{Source: SourceGeocoding, Window: Daily, Quota: 1000, PerMinute: 100},
		{Source: SourceTolls, Window: Monthly, Quota: 5000, PerMinute: 10},
		{Source: SourceHolidays, Window: Daily, Quota: 5000, PerMinute: 60},
		{Source: SourceTraffic, Window: Daily, Quota: 2000, PerMinute: 10},
	}
}

func remaining(quota, used int) int {
	if used >= quota {
		return 0
	}
	return quota - used
}
