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
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	restrictionsConf         = 90
	degradedRestrictionsConf = 60
	upcomingHolidayWindow    = 3 * 24 * time.Hour
)

var errSourceUnavailable = errors.New("source unavailable")

type RestrictionAnalyzerDeps struct {
	Holidays ports.HolidayProvider // nil means built-in fixed dates only
	Traffic  ports.TrafficFeed     // optional live feed for one country
	Budget   ports.Budget
	Caches   *Caches
	Keywords Keywords
	Logger   *slog.Logger

	HolidayTimeout time.Duration
	TrafficTimeout time.Duration
}

// RestrictionAnalyzer collects holiday, rule-table and live-traffic alerts for
// every country a route crosses. Countries are analysed independently and a
// failure in one never affects the others.
type RestrictionAnalyzer struct {
	holidays ports.HolidayProvider
	traffic  ports.TrafficFeed
	budget   ports.Budget
	caches   *Caches
	keywords Keywords
	logger   *slog.Logger

	holidayTimeout time.Duration
	trafficTimeout time.Duration

	inflight singleflight.Group
}

func NewRestrictionAnalyzer(d RestrictionAnalyzerDeps) *RestrictionAnalyzer {
	if d.Budget == nil {
		d.Budget = budget.NewTracker(budget.DefaultLimits(), budget.WithLogger(d.Logger))
	}
	if d.Caches == nil {
		d.Caches = NewCaches(0, nil, nil)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.HolidayTimeout <= 0 {
		d.HolidayTimeout = 5 * time.Second
	}
	if d.TrafficTimeout <= 0 {
		d.TrafficTimeout = 10 * time.Second
	}
	return &RestrictionAnalyzer{
		holidays:       d.Holidays,
		traffic:        d.Traffic,
		budget:         d.Budget,
		caches:         d.Caches,
		keywords:       d.Keywords.withDefaults(),
		logger:         d.Logger,
		holidayTimeout: d.HolidayTimeout,
		trafficTimeout: d.TrafficTimeout,
	}
}

type countryOutcome struct {
	alerts   []domain.RestrictionAlert
	degraded bool
}

// GetRouteRestrictions never fails. Countries whose analysis broke down get a
// single "verify manually" alert and lower the result's confidence.
func (r *RestrictionAnalyzer) GetRouteRestrictions(
	ctx context.Context,
	route domain.RouteResult,
	vehicle domain.VehicleProfile,
	pickup time.Time,
) domain.RestrictionsResult {
	defer obs.Time(ctx, r.logger, "restrictions.route")(nil)

	countries := domain.DedupeCountries(route.TransitCountries)
	outcomes := make([]countryOutcome, len(countries))

	var eg errgroup.Group
	for i, c := range countries {
		eg.Go(func() error {
			outcomes[i] = r.analyzeCountry(ctx, c, vehicle, pickup)
			return nil
		})
	}
	_ = eg.Wait()

	alerts := []domain.RestrictionAlert{}
	var degraded []string
	for i, o := range outcomes {
		alerts = append(alerts, o.alerts...)
		if o.degraded {
			degraded = append(degraded, countries[i])
		}
	}
	alerts = append(alerts, weekendAlerts(countries, pickup)...)
	if len(countries) == 0 {
		alerts = append(alerts, r.unknownRouteAlerts(pickup)...)
	}

	conf := restrictionsConf
	if len(degraded) > 0 || len(countries) == 0 {
		conf = degradedRestrictionsConf
	}

	return domain.RestrictionsResult{
		Alerts:     alerts,
		Summary:    domain.Summarize(alerts),
		Confidence: conf,
		Degraded:   degraded,
	}
}

// unknownRouteAlerts covers a route whose countries could not be placed:
// the built-in holiday calendar still applies, plus a manual check.
func (r *RestrictionAnalyzer) unknownRouteAlerts(pickup time.Time) []domain.RestrictionAlert {
	out := r.holidayAlerts(domain.UnknownCountry, builtinHolidaysAround(pickup), pickup)
	return append(out, verifyManually(domain.UnknownCountry))
}

func restrictionKey(country string, date time.Time, v domain.VehicleProfile) string {
	return fmt.Sprintf("%s|%s|%.2f|%t", country, date.Format(time.DateOnly), v.WeightTonnes, v.Hazardous)
}

func (r *RestrictionAnalyzer) analyzeCountry(
	ctx context.Context,
	country string,
	vehicle domain.VehicleProfile,
	date time.Time,
) (out countryOutcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "country restrictions panicked",
				slog.String("req_id", obs.RequestID(ctx)),
				slog.String("country", country),
				slog.Any("panic", p))
			out = countryOutcome{alerts: []domain.RestrictionAlert{verifyManually(country)}, degraded: true}
		}
	}()

	key := restrictionKey(country, date, vehicle)
	if hit, ok := r.caches.Restrictions.Get(key); ok {
		return countryOutcome{alerts: hit}
	}

	alerts, degraded, err := r.countryAlerts(ctx, country, vehicle, date)
	if err != nil {
		r.logger.WarnContext(ctx, "country restrictions failed",
			slog.String("req_id", obs.RequestID(ctx)),
			slog.String("country", country),
			slog.Any("err", err))
		return countryOutcome{alerts: []domain.RestrictionAlert{verifyManually(country)}, degraded: true}
	}

	if !degraded {
		r.caches.Restrictions.Set(key, alerts)
	}
	return countryOutcome{alerts: alerts, degraded: degraded}
}

// countryAlerts is the union of holiday, rule-table and live-feed alerts.
// degraded reports that a source was replaced by a local substitute.
func (r *RestrictionAnalyzer) countryAlerts(
	ctx context.Context,
	country string,
	vehicle domain.VehicleProfile,
	date time.Time,
) ([]domain.RestrictionAlert, bool, error) {
	degraded := false

	holidays, err := r.holidaysAround(ctx, country, date)
	if err != nil {
		obs.Fallback(ctx, r.logger, budget.SourceHolidays, failureReason(ctx, err), err)
		holidays = builtinHolidaysAround(date)
		degraded = true
	}

	alerts := r.holidayAlerts(country, holidays, date)
	if degraded {
		alerts = append(alerts, domain.RestrictionAlert{
			Type:     domain.AlertWarning,
			Severity: domain.SeverityInfo,
			Country:  country,
			Message:  "Holiday calendar unavailable for " + country + ", verify local holidays",
			Source:   "holiday-fallback",
		})
	}

	alerts = append(alerts, ruleAlerts(country, ruleInput{date: date, vehicle: vehicle})...)

	if r.traffic != nil && r.traffic.Country() == country {
		live, err := r.trafficAlerts(ctx, country)
		if err != nil {
			obs.Fallback(ctx, r.logger, budget.SourceTraffic, failureReason(ctx, err), err)
			degraded = true
		}
		alerts = append(alerts, live...)
	}

	if err := ctx.Err(); err != nil {
		return nil, true, fmt.Errorf("country %s: %w", country, err)
	}
	if alerts == nil {
		alerts = []domain.RestrictionAlert{}
	}
	return alerts, degraded, nil
}

// holidaysAround loads the pickup year and, near year end, the following one.
func (r *RestrictionAnalyzer) holidaysAround(ctx context.Context, country string, date time.Time) ([]domain.Holiday, error) {
	out, err := r.holidaysFor(ctx, country, date.Year())
	if err != nil {
		return nil, err
	}
	if next := date.Add(upcomingHolidayWindow); next.Year() != date.Year() {
		more, err := r.holidaysFor(ctx, country, next.Year())
		if err != nil {
			return nil, err
		}
		out = append(append([]domain.Holiday{}, out...), more...)
	}
	return out, nil
}

func builtinHolidaysAround(date time.Time) []domain.Holiday {
	out := builtinHolidays(date.Year())
	if next := date.Add(upcomingHolidayWindow); next.Year() != date.Year() {
		out = append(out, builtinHolidays(next.Year())...)
	}
	return out
}

// holidaysFor fetches one calendar year, coalescing concurrent lookups.
func (r *RestrictionAnalyzer) holidaysFor(ctx context.Context, country string, year int) ([]domain.Holiday, error) {
	key := fmt.Sprintf("%s|%d", country, year)
	if hit, ok := r.caches.Holidays.Get(key); ok {
		return hit, nil
	}
	if r.holidays == nil {
		return nil, fmt.Errorf("holidays %s: %w", key, errSourceUnavailable)
	}

	v, err, _ := r.inflight.Do("holidays|"+key, func() (any, error) {
		if !r.budget.TryReserve(ctx, budget.SourceHolidays, 1) {
			return nil, fmt.Errorf("holidays %s: budget exhausted: %w", key, errSourceUnavailable)
		}

		callCtx, cancel := context.WithTimeout(ctx, r.holidayTimeout)
		defer cancel()

		hs, err := r.holidays.PublicHolidays(callCtx, country, year)
		if err != nil {
			return nil, fmt.Errorf("holidays %s: %w", key, err)
		}
		r.caches.Holidays.Set(key, hs)
		return hs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Holiday), nil
}

func (r *RestrictionAnalyzer) holidayAlerts(country string, holidays []domain.Holiday, date time.Time) []domain.RestrictionAlert {
	day := date.Format(time.DateOnly)
	horizon := date.Add(upcomingHolidayWindow).Format(time.DateOnly)

	var out []domain.RestrictionAlert
	for _, h := range holidays {
		hd := h.Date.Format(time.DateOnly)
		switch {
		case hd == day:
			_, critical := matchAny(h.Name+" "+h.LocalName, r.keywords.CriticalHolidays)
			a := domain.RestrictionAlert{
				Type:     domain.AlertHoliday,
				Severity: domain.SeverityWarning,
				Country:  country,
				Message:  fmt.Sprintf("%s: public holiday in %s, reduced truck circulation", h.Name, country),
				Source:   "holidays",
				Date:     hd,
			}
			if critical {
				a.Severity = domain.SeverityCritical
				a.Message = fmt.Sprintf("%s: major holiday in %s, truck circulation banned or heavily restricted", h.Name, country)
			}
			out = append(out, a)
		case hd > day && hd <= horizon:
			out = append(out, domain.RestrictionAlert{
				Type:     domain.AlertUpcomingHoliday,
				Severity: domain.SeverityInfo,
				Country:  country,
				Message:  fmt.Sprintf("Upcoming holiday in %s: %s (%s)", country, h.Name, hd),
				Source:   "holidays",
				Date:     hd,
			})
		}
	}
	return out
}

// trafficAlerts turns truck-relevant live situations into alerts.
func (r *RestrictionAnalyzer) trafficAlerts(ctx context.Context, country string) ([]domain.RestrictionAlert, error) {
	if !r.budget.TryReserve(ctx, budget.SourceTraffic, 1) {
		return nil, fmt.Errorf("traffic %s: budget exhausted: %w", country, errSourceUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.trafficTimeout)
	defer cancel()

	situations, err := r.traffic.Situations(callCtx)
	if err != nil {
		return nil, fmt.Errorf("traffic %s: %w", country, err)
	}

	var out []domain.RestrictionAlert
	for _, s := range situations {
		if _, ok := matchAny(s.Comment, r.keywords.TruckRelevance); !ok {
			continue
		}
		out = append(out, domain.RestrictionAlert{
			Type:     domain.AlertTraffic,
			Severity: trafficSeverity(s.Severity),
			Country:  country,
			Message:  s.Comment,
			Source:   "datex",
		})
	}
	return out, nil
}

func verifyManually(country string) domain.RestrictionAlert {
	return domain.RestrictionAlert{
		Type:     domain.AlertWarning,
		Severity: domain.SeverityInfo,
		Country:  country,
		Message:  "Verify local restrictions for " + country + " manually",
		Source:   "fallback",
	}
}
