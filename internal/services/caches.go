package services

import (
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/ttlcache"
	"time"
)

// Caches bundles one TTL cache per data kind. Each component owns its own
// cache and none is shared across kinds.
type Caches struct {
	Geocode      *ttlcache.Cache[domain.GeocodeResult]
	Route        *ttlcache.Cache[domain.RouteResult]
	Toll         *ttlcache.Cache[domain.TollResult]
	Restrictions *ttlcache.Cache[[]domain.RestrictionAlert]
	Holidays     *ttlcache.Cache[[]domain.Holiday]
}

// NewCaches builds the registry. ttls may be nil; missing kinds use the defaults.
func NewCaches(maxEntries int, ttls map[ttlcache.Kind]time.Duration, now func() time.Time) *Caches {
	resolved := ttlcache.TTLs(ttls)
	opts := []ttlcache.Option{ttlcache.WithMaxEntries(maxEntries)}
	if now != nil {
		opts = append(opts, ttlcache.WithClock(now))
	}

	return &Caches{
		Geocode:      ttlcache.New[domain.GeocodeResult](resolved[ttlcache.KindGeocode], opts...),
		Route:        ttlcache.New[domain.RouteResult](resolved[ttlcache.KindRoute], opts...),
		Toll:         ttlcache.New[domain.TollResult](resolved[ttlcache.KindToll], opts...),
		Restrictions: ttlcache.New[[]domain.RestrictionAlert](resolved[ttlcache.KindRestrictions], opts...),
		Holidays:     ttlcache.New[[]domain.Holiday](resolved[ttlcache.KindHolidays], opts...),
	}
}

// Sizes reports live entry counts per kind.
func (c *Caches) Sizes() map[ttlcache.Kind]int {
	return map[ttlcache.Kind]int{
		ttlcache.KindGeocode:      c.Geocode.Len(),
		ttlcache.KindRoute:        c.Route.Len(),
		ttlcache.KindToll:         c.Toll.Len(),
		ttlcache.KindRestrictions: c.Restrictions.Len(),
		ttlcache.KindHolidays:     c.Holidays.Len(),
	}
}

// TTLs reports the freshness window each cache was built with.
func (c *Caches) TTLs() map[ttlcache.Kind]time.Duration {
	return map[ttlcache.Kind]time.Duration{
		ttlcache.KindGeocode:      c.Geocode.TTL(),
		ttlcache.KindRoute:        c.Route.TTL(),
		ttlcache.KindToll:         c.Toll.TTL(),
		ttlcache.KindRestrictions: c.Restrictions.TTL(),
		ttlcache.KindHolidays:     c.Holidays.TTL(),
	}
}

// Purge drops expired entries from every cache and returns how many went.
func (c *Caches) Purge() int {
	return c.Geocode.Purge() + c.Route.Purge() + c.Toll.Purge() +
		c.Restrictions.Purge() + c.Holidays.Purge()
}
