package services

import (
	"context"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/budget"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"
)

const (
	fallbackTollConf  = 65
	emergencyTollConf = 50
	emergencyTollEUR  = 50.0
	defaultRatePerKm  = 0.10
)

// EUR per km for heavy vehicles, used when the toll provider is unavailable.
var tollRatePerKm = map[string]float64{
	"ES": 0.12, "FR": 0.16, "IT": 0.14, "DE": 0.08, "AT": 0.09, "CH": 0.25,
	"NL": 0.05, "BE": 0.03, "PL": 0.06, "CZ": 0.04, "SK": 0.03, "PT": 0.08,
}

type TollCalculatorDeps struct {
	Provider ports.TollProvider // nil disables live pricing
	Budget   ports.Budget
	Caches   *Caches
	Keywords Keywords
	Logger   *slog.Logger
	Timeout  time.Duration
}

// TollCalculator prices tolls along a route. It never fails: every problem
// ends in an estimate with lower confidence.
type TollCalculator struct {
	provider ports.TollProvider
	budget   ports.Budget
	caches   *Caches
	keywords Keywords
	logger   *slog.Logger
	timeout  time.Duration
}

func NewTollCalculator(d TollCalculatorDeps) *TollCalculator {
	if d.Budget == nil {
		d.Budget = budget.NewTracker(budget.DefaultLimits(), budget.WithLogger(d.Logger))
	}
	if d.Caches == nil {
		d.Caches = NewCaches(0, nil, nil)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	return &TollCalculator{
		provider: d.Provider,
		budget:   d.Budget,
		caches:   d.Caches,
		keywords: d.Keywords.withDefaults(),
		logger:   d.Logger,
		timeout:  d.Timeout,
	}
}

// tollKey hashes the route geometry and the vehicle profile.
func tollKey(geometry []domain.Coordinates, v domain.VehicleProfile) string {
	h := fnv.New64a()
	for _, c := range geometry {
		fmt.Fprintf(h, "%.5f,%.5f;", c.Lon, c.Lat)
	}
	return fmt.Sprintf("%016x:%016x", h.Sum64(), v.Hash())
}

// CalculateTolls returns live pricing when possible, else an estimate.
func (t *TollCalculator) CalculateTolls(ctx context.Context, route domain.RouteResult, vehicle domain.VehicleProfile) (res domain.TollResult) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "toll calculation panicked",
				slog.String("req_id", obs.RequestID(ctx)), slog.Any("panic", r))
			res = EmergencyTolls()
		}
	}()

	if !route.HasGeometry() {
		obs.Fallback(ctx, t.logger, budget.SourceTolls, "no_geometry", nil)
		return CalculateFallbackTolls(route.DistanceKm, route.TransitCountries, vehicle)
	}

	key := tollKey(route.Geometry, vehicle)
	if hit, ok := t.caches.Toll.Get(key); ok {
		return hit
	}

	if t.provider == nil {
		obs.Fallback(ctx, t.logger, budget.SourceTolls, "provider_disabled", nil)
		return CalculateFallbackTolls(route.DistanceKm, route.TransitCountries, vehicle)
	}
	if !t.budget.TryReserve(ctx, budget.SourceTolls, 1) {
		obs.Fallback(ctx, t.logger, budget.SourceTolls, "budget_exhausted", nil)
		return CalculateFallbackTolls(route.DistanceKm, route.TransitCountries, vehicle)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	quote, err := t.provider.Tolls(callCtx, ports.TollRequest{
		From:    route.Geometry[0],
		To:      route.Geometry[len(route.Geometry)-1],
		Vehicle: vehicle,
	})
	if err != nil {
		obs.Fallback(ctx, t.logger, budget.SourceTolls, failureReason(callCtx, err), err)
		return CalculateFallbackTolls(route.DistanceKm, route.TransitCountries, vehicle)
	}

	res = t.liveTolls(route, quote)
	t.caches.Toll.Set(key, res)
	return res
}

func (t *TollCalculator) liveTolls(route domain.RouteResult, q ports.TollQuote) domain.TollResult {
	transit := domain.DedupeCountries(route.TransitCountries)
	countries := domain.DedupeCountries(append(append([]string{}, transit...), q.Countries...))

	costs := newLedger(countries)
	attributed := 0.0
	var specials []domain.SpecialToll
	for _, it := range q.Items {
		country := strings.ToUpper(strings.TrimSpace(it.Country))
		if country == "" {
			country = domain.UnknownCountry
		}
		costs.add(country, it.CostEUR)
		attributed += it.CostEUR

		if _, ok := matchAny(it.Name+" "+it.Road, t.keywords.SpecialTolls); ok {
			specials = append(specials, domain.SpecialToll{
				Name:    strings.TrimSpace(it.Name),
				Country: country,
				CostEUR: domain.Round2(it.CostEUR),
			})
		}
	}

	// Provider totals without per-item countries are spread over the transit countries.
	if rest := q.TotalEUR - attributed; q.HasCosts && rest > 0.01 {
		spread := transit
		if len(spread) == 0 {
			spread = []string{domain.UnknownCountry}
		}
		share := rest / float64(len(spread))
		for _, c := range spread {
			costs.add(c, share)
		}
	}

	vignettes := costs.addVignettes(countries)

	currency := q.Currency
	if currency == "" {
		currency = "EUR"
	}

	breakdown, total := costs.lines()
	return domain.TollResult{
		TotalCostEUR: total,
		Currency:     currency,
		Breakdown:    breakdown,
		Vignettes:    vignettes,
		SpecialTolls: specials,
		TollCount:    len(q.Items),
		Confidence:   liveTollConfidence(len(q.Items), q.HasCosts),
		Source:       domain.SourceLive,
		Method:       "tollguru",
	}
}

func liveTollConfidence(items int, hasCosts bool) int {
	switch {
	case items >= 10:
		return 95
	case items >= 3:
		return 92
	case items > 0:
		return 85
	case hasCosts:
		return 75
	default:
		return 70
	}
}

// CalculateFallbackTolls splits the distance evenly across the transit
// countries and prices each share at that country's per-km rate.
func CalculateFallbackTolls(distanceKm float64, countries []string, _ domain.VehicleProfile) domain.TollResult {
	countries = domain.DedupeCountries(countries)
	if distanceKm <= 0 || len(countries) == 0 {
		return EmergencyTolls()
	}

	costs := newLedger(countries)
	perCountryKm := distanceKm / float64(len(countries))
	for _, c := range countries {
		rate, ok := tollRatePerKm[c]
		if !ok {
			rate = defaultRatePerKm
		}
		costs.add(c, perCountryKm*rate)
	}
	vignettes := costs.addVignettes(countries)

	breakdown, total := costs.lines()
	return domain.TollResult{
		TotalCostEUR: total,
		Currency:     "EUR",
		Breakdown:    breakdown,
		Vignettes:    vignettes,
		SpecialTolls: []domain.SpecialToll{},
		Confidence:   fallbackTollConf,
		Source:       domain.SourceFallback,
		Method:       "estimated",
	}
}

// EmergencyTolls is the flat answer used when nothing else can be computed.
func EmergencyTolls() domain.TollResult {
	return domain.TollResult{
		TotalCostEUR: emergencyTollEUR,
		Currency:     "EUR",
		Breakdown:    []domain.CountryCost{{Country: domain.UnknownCountry, CostEUR: emergencyTollEUR}},
		Vignettes:    []domain.CountryCost{},
		SpecialTolls: []domain.SpecialToll{},
		Confidence:   emergencyTollConf,
		Source:       domain.SourceFallback,
		Method:       "emergency",
	}
}

// ledger accumulates per-country costs in first-seen order.
type ledger struct {
	order []string
	cost  map[string]float64
}

func newLedger(countries []string) *ledger {
	l := &ledger{cost: make(map[string]float64, len(countries))}
	for _, c := range countries {
		l.add(c, 0)
	}
	return l
}

func (l *ledger) add(country string, eur float64) {
	if _, ok := l.cost[country]; !ok {
		l.order = append(l.order, country)
	}
	l.cost[country] += eur
}

// addVignettes folds each country's daily vignette share into its line.
func (l *ledger) addVignettes(countries []string) []domain.CountryCost {
	out := []domain.CountryCost{}
	for _, c := range countries {
		if daily, ok := domain.VignetteDailyEUR(c); ok {
			l.add(c, daily)
			out = append(out, domain.CountryCost{Country: c, CostEUR: daily})
		}
	}
	return out
}

// lines rounds each line to cents; the total is the sum of the rounded lines.
func (l *ledger) lines() ([]domain.CountryCost, float64) {
	out := make([]domain.CountryCost, 0, len(l.order))
	total := 0.0
	for _, c := range l.order {
		v := domain.Round2(l.cost[c])
		out = append(out, domain.CountryCost{Country: c, CostEUR: v})
		total += v
	}
	return out, domain.Round2(total)
}
