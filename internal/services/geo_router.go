package services

import (
	"context"
	"errors"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/budget"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidInput marks caller mistakes. It is the only error class the
// pipeline surfaces; provider failures degrade to fallbacks instead.
var ErrInvalidInput = errors.New("invalid input")

const (
	roadFactor        = 1.2
	fallbackSpeedKmh  = 80.0
	fallbackRouteConf = 70

	cityTableConf = 40
	centroidConf  = 20
	storeConf     = 85
)

type GeoRouterDeps struct {
	Geocoder ports.Geocoder      // nil disables live geocoding
	Router   ports.RouteProvider // nil disables live routing
	Store    ports.GeocodeStore  // optional persistent geocode cache
	Budget   ports.Budget
	Caches   *Caches
	Logger   *slog.Logger

	GeocodeTimeout    time.Duration
	DirectionsTimeout time.Duration
}

// GeoRouter resolves place names and computes heavy-vehicle routes, falling
// back to local estimation whenever the provider is unavailable.
type GeoRouter struct {
	geocoder ports.Geocoder
	router   ports.RouteProvider
	store    ports.GeocodeStore
	budget   ports.Budget
	caches   *Caches
	logger   *slog.Logger

	geocodeTimeout    time.Duration
	directionsTimeout time.Duration

	inflight singleflight.Group
}

func NewGeoRouter(d GeoRouterDeps) *GeoRouter {
	if d.Budget == nil {
		d.Budget = budget.NewTracker(budget.DefaultLimits(), budget.WithLogger(d.Logger))
	}
	if d.Caches == nil {
		d.Caches = NewCaches(0, nil, nil)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.GeocodeTimeout <= 0 {
		d.GeocodeTimeout = 8 * time.Second
	}
	if d.DirectionsTimeout <= 0 {
		d.DirectionsTimeout = 10 * time.Second
	}

	return &GeoRouter{
		geocoder:          d.Geocoder,
		router:            d.Router,
		store:             d.Store,
		budget:            d.Budget,
		caches:            d.Caches,
		logger:            d.Logger,
		geocodeTimeout:    d.GeocodeTimeout,
		directionsTimeout: d.DirectionsTimeout,
	}
}

// placeKey collapses whitespace and lower-cases a place name.
func placeKey(place string) string {
	return strings.ToLower(strings.Join(strings.Fields(place), " "))
}

// Geocode resolves a place name. Only an empty name is an error.
func (g *GeoRouter) Geocode(ctx context.Context, place string) (domain.GeocodeResult, error) {
	key := placeKey(place)
	if key == "" {
		return domain.GeocodeResult{}, fmt.Errorf("geocode: place must be non-empty: %w", ErrInvalidInput)
	}

	if hit, ok := g.caches.Geocode.Get(key); ok {
		return hit, nil
	}

	v, _, _ := g.inflight.Do("geocode|"+key, func() (any, error) {
		return g.resolve(ctx, key, strings.Join(strings.Fields(place), " ")), nil
	})
	return v.(domain.GeocodeResult), nil
}

func (g *GeoRouter) resolve(ctx context.Context, key, display string) domain.GeocodeResult {
	if g.store != nil {
		stored, err := g.store.GetMany(ctx, []string{key})
		if err != nil {
			g.logger.WarnContext(ctx, "geocode store read failed",
				slog.String("req_id", obs.RequestID(ctx)), slog.Any("err", err))
		} else if c, ok := stored[key]; ok {
			res := domain.GeocodeResult{
				Query:      display,
				Label:      display,
				Coord:      c,
				Country:    domain.CountryAt(c),
				Confidence: storeConf,
				Source:     domain.SourceLive,
			}
			g.caches.Geocode.Set(key, res)
			return res
		}
	}

	if g.geocoder == nil {
		obs.Fallback(ctx, g.logger, budget.SourceGeocoding, "provider_disabled", nil)
		return fallbackGeocode(display)
	}
	if !g.budget.TryReserve(ctx, budget.SourceGeocoding, 1) {
		obs.Fallback(ctx, g.logger, budget.SourceGeocoding, "budget_exhausted", nil)
		return fallbackGeocode(display)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.geocodeTimeout)
	defer cancel()

	candidates, err := g.geocoder.Search(callCtx, display, focusFor(display))
	if err != nil || len(candidates) == 0 {
		obs.Fallback(ctx, g.logger, budget.SourceGeocoding, failureReason(callCtx, err), err)
		return fallbackGeocode(display)
	}

	best := bestCandidate(candidates, display)
	res := domain.GeocodeResult{
		Query:      display,
		Label:      best.Label,
		Coord:      best.Coord,
		Country:    candidateCountry(best),
		Confidence: providerConfidence(best.Confidence),
		Source:     domain.SourceLive,
	}
	if res.Label == "" {
		res.Label = display
	}

	g.caches.Geocode.Set(key, res)
	if g.store != nil {
		if err := g.store.PutMany(ctx, map[string]domain.Coordinates{key: res.Coord}); err != nil {
			g.logger.WarnContext(ctx, "geocode store write failed",
				slog.String("req_id", obs.RequestID(ctx)), slog.Any("err", err))
		}
	}
	return res
}

// fallbackGeocode answers from the city table, else the Europe centroid.
func fallbackGeocode(place string) domain.GeocodeResult {
	res := domain.GeocodeResult{Query: place, Label: place, Source: domain.SourceFallback}
	if c, ok := lookupCity(place); ok {
		res.Coord = c.coord
		res.Country = c.country
		res.Confidence = cityTableConf
		return res
	}
	res.Coord = europeCentroid
	res.Country = domain.CountryAt(res.Coord)
	res.Confidence = centroidConf
	return res
}

func focusFor(place string) domain.Coordinates {
	if c, ok := lookupCity(place); ok {
		return c.coord
	}
	return europeCentroid
}

// scoreCandidate prefers localities, exact name matches and confident hits.
func scoreCandidate(c ports.GeocodeCandidate, query string) float64 {
	score := c.Confidence * 5

	switch c.Layer {
	case "locality":
		score += 10
	case "region":
		score += 5
	}

	q := fold(query)
	if head, _, ok := strings.Cut(q, ","); ok {
		q = strings.TrimSpace(head)
	}
	name := fold(c.Name)
	switch {
	case name != "" && name == q:
		score += 20
	case name != "" && strings.Contains(name, q):
		score += 10
	}
	return score
}

// bestCandidate keeps provider order on ties.
func bestCandidate(cs []ports.GeocodeCandidate, query string) ports.GeocodeCandidate {
	best, bestScore := cs[0], scoreCandidate(cs[0], query)
	for _, c := range cs[1:] {
		if s := scoreCandidate(c, query); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func candidateCountry(c ports.GeocodeCandidate) string {
	if code, ok := domain.NormalizeCountryCode(c.CountryCode); ok {
		return code
	}
	if code, ok := domain.CountryFromName(c.CountryName); ok {
		return code
	}
	return domain.CountryAt(c.Coord)
}

// providerConfidence maps a 0..1 provider score onto 50..99.
func providerConfidence(v float64) int {
	if v <= 0 {
		return 80
	}
	return domain.ClampInt(int(math.Round(50+v*49)), 50, 99)
}

func failureReason(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "timeout"
	}
	if err == nil {
		return "partial_data"
	}
	return "provider_error"
}

func routeKey(origin, destination string) string {
	return placeKey(origin) + "|" + placeKey(destination)
}

// CalculateRoute returns a heavy-vehicle route between two place names.
// It errors only on empty input; provider trouble yields a fallback route.
func (g *GeoRouter) CalculateRoute(ctx context.Context, origin, destination string) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, g.logger, "route.calculate")(&err)

	if placeKey(origin) == "" || placeKey(destination) == "" {
		return domain.RouteResult{}, fmt.Errorf("calculate route: origin and destination must be non-empty: %w", ErrInvalidInput)
	}

	key := routeKey(origin, destination)
	if hit, ok := g.caches.Route.Get(key); ok {
		return hit, nil
	}

	var from, to domain.GeocodeResult
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		from, err = g.Geocode(egCtx, origin)
		return err
	})
	eg.Go(func() error {
		var err error
		to, err = g.Geocode(egCtx, destination)
		return err
	})
	if err := eg.Wait(); err != nil {
		return domain.RouteResult{}, fmt.Errorf("calculate route: %w", err)
	}

	if g.router == nil {
		obs.Fallback(ctx, g.logger, budget.SourceDirections, "provider_disabled", nil)
		return fallbackRoute(origin, destination, from, to), nil
	}
	if !g.budget.TryReserve(ctx, budget.SourceDirections, 1) {
		obs.Fallback(ctx, g.logger, budget.SourceDirections, "budget_exhausted", nil)
		return fallbackRoute(origin, destination, from, to), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.directionsTimeout)
	defer cancel()

	dir, derr := g.router.Directions(callCtx, from.Coord, to.Coord)
	if derr == nil && dir.DistanceKm <= 0 {
		derr = errors.New("directions: non-positive distance")
	}
	if derr != nil {
		obs.Fallback(ctx, g.logger, budget.SourceDirections, failureReason(callCtx, derr), derr)
		return fallbackRoute(origin, destination, from, to), nil
	}

	route := liveRoute(origin, destination, from, to, dir)
	g.caches.Route.Set(key, route)
	return route, nil
}

func liveRoute(origin, destination string, from, to domain.GeocodeResult, dir ports.Directions) domain.RouteResult {
	countries := domain.DedupeCountries(dir.Countries)
	fromProvider := len(countries) > 0
	if !fromProvider {
		countries = domain.InferCountriesBetween(from.Coord, to.Coord, from.Country, to.Country)
	}

	hours := dir.DurationSeconds / 3600
	return domain.RouteResult{
		Origin:           origin,
		Destination:      destination,
		OriginCoord:      from.Coord,
		DestCoord:        to.Coord,
		DistanceKm:       math.Round(dir.DistanceKm),
		DurationMinutes:  math.Round(dir.DurationSeconds / 60),
		TransitDays:      domain.TransitDays(hours, dir.DistanceKm),
		TransitCountries: countries,
		Geometry:         dir.Geometry,
		TollSections:     dir.TollSections,
		Restrictions:     dir.RestrictionSegments,
		Confidence:       routeConfidence(fromProvider, len(countries), dir),
		Source:           domain.SourceLive,
	}
}

// routeConfidence starts at 90 and stays within [70, 98].
func routeConfidence(fromProvider bool, countries int, dir ports.Directions) int {
	c := 90
	if !fromProvider {
		c -= 15
	}
	if countries > 4 {
		c -= 5
	}
	if dir.RestrictionSegments > 10 {
		c -= 10
	}
	if dir.ExtrasPresent > 0 {
		c += 5
	}
	return domain.ClampInt(c, 70, 98)
}

// fallbackRoute estimates road distance from the great-circle distance.
// Fallback routes are not cached so the next request retries the provider.
func fallbackRoute(origin, destination string, from, to domain.GeocodeResult) domain.RouteResult {
	km := math.Max(math.Round(domain.GreatCircleKm(from.Coord, to.Coord)*roadFactor), 1)
	hours := km / fallbackSpeedKmh

	return domain.RouteResult{
		Origin:           origin,
		Destination:      destination,
		OriginCoord:      from.Coord,
		DestCoord:        to.Coord,
		DistanceKm:       km,
		DurationMinutes:  math.Round(hours * 60),
		TransitDays:      domain.TransitDays(hours, km),
		TransitCountries: domain.InferCountriesBetween(from.Coord, to.Coord, from.Country, to.Country),
		Confidence:       fallbackRouteConf,
		Source:           domain.SourceFallback,
	}
}
