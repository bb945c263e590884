package ttlcache

import "time"

type Kind string

const (
	KindGeocode      Kind = "geocode"
	KindRoute        Kind = "route"
	KindToll         Kind = "toll"
	KindRestrictions Kind = "restrictions"
	KindHolidays     Kind = "holidays"
)

var defaultTTLs = map[Kind]time.Duration{
	KindGeocode:      7 * 24 * time.Hour,
	KindRoute:        24 * time.Hour,
	KindToll:         24 * time.Hour,
	KindRestrictions: 6 * time.Minute,
	KindHolidays:     24 * time.Hour,
}

// DefaultTTL returns the freshness window for a data kind.
// Restrictions follow the live traffic feed refresh cadence.
func DefaultTTL(k Kind) time.Duration {
	return defaultTTLs[k]
}

// TTLs resolves per-kind windows, letting non-zero overrides win.
func TTLs(overrides map[Kind]time.Duration) map[Kind]time.Duration {
	out := make(map[Kind]time.Duration, len(defaultTTLs))
	for k, v := range defaultTTLs {
		out[k] = v
	}
	for k, v := range overrides {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}
