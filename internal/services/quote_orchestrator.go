package services

import (
	"context"
	"errors"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	quoteValidity       = 7 * 24 * time.Hour
	defaultPriceTimeout = 10 * time.Second
)

// QuoteRequest is the validated input of BuildQuoteInputs.
type QuoteRequest struct {
	Origin      string `validate:"required,max=200"`
	Destination string `validate:"required,max=200"`
	Vehicle     domain.VehicleProfile
	PickupDate  string `validate:"required"`
}

type QuoteOrchestratorDeps struct {
	Geo          *GeoRouter
	Tolls        *TollCalculator
	Restrictions *RestrictionAnalyzer
	Prices       ports.PriceQuoter // optional
	Logger       *slog.Logger
	Now          func() time.Time
	PriceTimeout time.Duration
}

// QuoteOrchestrator gathers route, toll, restriction and price inputs for a
// quote. Tolls and restrictions depend on the route, so they run after it.
type QuoteOrchestrator struct {
	geo          *GeoRouter
	tolls        *TollCalculator
	restrictions *RestrictionAnalyzer
	prices       ports.PriceQuoter
	logger       *slog.Logger
	now          func() time.Time
	priceTimeout time.Duration
	validate     *validator.Validate
}

func NewQuoteOrchestrator(d QuoteOrchestratorDeps) (*QuoteOrchestrator, error) {
	if d.Geo == nil || d.Tolls == nil || d.Restrictions == nil {
		return nil, errors.New("quote orchestrator: geo, tolls and restrictions are required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.PriceTimeout <= 0 {
		d.PriceTimeout = defaultPriceTimeout
	}
	return &QuoteOrchestrator{
		geo:          d.Geo,
		tolls:        d.Tolls,
		restrictions: d.Restrictions,
		prices:       d.Prices,
		logger:       d.Logger,
		now:          d.Now,
		priceTimeout: d.PriceTimeout,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// ParsePickupDate accepts YYYY-MM-DD or RFC 3339 and keeps the calendar date.
func ParsePickupDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("pickup date %q: expected YYYY-MM-DD: %w", s, ErrInvalidInput)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// BuildQuoteInputs is a convenience form of Build.
func (o *QuoteOrchestrator) BuildQuoteInputs(
	ctx context.Context,
	origin, destination string,
	vehicle domain.VehicleProfile,
	pickupDate string,
) (domain.AggregatedQuoteInputs, error) {
	return o.Build(ctx, QuoteRequest{
		Origin:      origin,
		Destination: destination,
		Vehicle:     vehicle,
		PickupDate:  pickupDate,
	})
}

// Build validates the request and runs the pipeline. Only input errors are
// returned; every provider problem is absorbed into lower confidence. If ctx
// is cancelled the call returns early while sub-lookups finish in the
// background and still fill the caches.
func (o *QuoteOrchestrator) Build(ctx context.Context, req QuoteRequest) (_ domain.AggregatedQuoteInputs, err error) {
	defer obs.Time(ctx, o.logger, "quote.build")(&err)

	req.Origin = strings.Join(strings.Fields(req.Origin), " ")
	req.Destination = strings.Join(strings.Fields(req.Destination), " ")
	if err := o.validate.Struct(req); err != nil {
		return domain.AggregatedQuoteInputs{}, fmt.Errorf("quote request: %v: %w", err, ErrInvalidInput)
	}
	pickup, err := ParsePickupDate(req.PickupDate)
	if err != nil {
		return domain.AggregatedQuoteInputs{}, fmt.Errorf("quote request: %w", err)
	}

	work := context.WithoutCancel(ctx)
	done := make(chan domain.AggregatedQuoteInputs, 1)
	go func() { done <- o.run(work, req, pickup) }()

	select {
	case out := <-done:
		return out, nil
	case <-ctx.Done():
		return domain.AggregatedQuoteInputs{}, fmt.Errorf("quote request abandoned: %w", ctx.Err())
	}
}

func (o *QuoteOrchestrator) run(ctx context.Context, req QuoteRequest, pickup time.Time) domain.AggregatedQuoteInputs {
	var (
		route  domain.RouteResult
		prices []domain.PriceQuote
	)

	var stage1 errgroup.Group
	stage1.Go(func() error {
		r, err := o.geo.CalculateRoute(ctx, req.Origin, req.Destination)
		if err != nil {
			return err
		}
		route = r
		return nil
	})
	stage1.Go(func() error {
		prices = o.priceQuotes(ctx, req)
		return nil
	})
	if err := stage1.Wait(); err != nil {
		// Inputs are validated above, so this only happens if the router
		// rejects a name that passed validation. Estimate from the centroid.
		o.logger.ErrorContext(ctx, "route stage failed", slog.String("req_id", obs.RequestID(ctx)), slog.Any("err", err))
		centroid := domain.GeocodeResult{Coord: europeCentroid}
		route = fallbackRoute(req.Origin, req.Destination, centroid, centroid)
	}

	var (
		toll         domain.TollResult
		restrictions domain.RestrictionsResult
	)
	var stage2 errgroup.Group
	stage2.Go(func() error {
		toll = o.tolls.CalculateTolls(ctx, route, req.Vehicle)
		return nil
	})
	stage2.Go(func() error {
		restrictions = o.restrictions.GetRouteRestrictions(ctx, route, req.Vehicle, pickup)
		return nil
	})
	_ = stage2.Wait()

	now := o.now().UTC()
	return domain.AggregatedQuoteInputs{
		RequestID:         requestID(ctx),
		Route:             route,
		Toll:              toll,
		Restrictions:      restrictions,
		Vehicle:           req.Vehicle,
		PickupDate:        pickup.Format(time.DateOnly),
		PriceQuotes:       prices,
		RouteAlerts:       RouteAlerts(route, pickup),
		Delivery:          ScheduleDelivery(pickup, route, req.Vehicle, restrictions.Alerts),
		OverallConfidence: min(route.Confidence, toll.Confidence, restrictions.Confidence),
		GeneratedAt:       now,
		ValidUntil:        now.Add(quoteValidity),
	}
}

func (o *QuoteOrchestrator) priceQuotes(ctx context.Context, req QuoteRequest) []domain.PriceQuote {
	if o.prices == nil {
		return []domain.PriceQuote{}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.priceTimeout)
	defer cancel()

	qs, err := o.prices.Quotes(callCtx, req.Origin, req.Destination, req.Vehicle)
	if err != nil {
		obs.Fallback(ctx, o.logger, "prices", failureReason(callCtx, err), err)
		return []domain.PriceQuote{}
	}
	if qs == nil {
		qs = []domain.PriceQuote{}
	}
	return qs
}

func requestID(ctx context.Context) string {
	if id := obs.RequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// RouteAlerts flags route-level concerns that are independent of any one country.
func RouteAlerts(route domain.RouteResult, pickup time.Time) []domain.RouteAlert {
	out := []domain.RouteAlert{}

	if n := len(route.TransitCountries); n > 3 {
		out = append(out, domain.RouteAlert{
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("Complex route: transit through %d countries", n),
		})
	}
	if route.DistanceKm > 2000 {
		out = append(out, domain.RouteAlert{
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("Long route: %.0f km, consider a relief driver", route.DistanceKm),
		})
	}
	if route.Crosses("CH") {
		out = append(out, domain.RouteAlert{
			Severity: domain.SeverityWarning,
			Message:  "Transit through Switzerland: vignette and night restrictions apply",
		})
	}
	if route.Crosses("FR") && route.Crosses("IT") {
		out = append(out, domain.RouteAlert{
			Severity: domain.SeverityInfo,
			Message:  "Alpine crossing: check Mont Blanc and Fréjus tunnel conditions",
		})
	}
	if wd := pickup.Weekday(); (wd == time.Saturday || wd == time.Sunday) && (route.Crosses("DE") || route.Crosses("AT")) {
		out = append(out, domain.RouteAlert{
			Severity: domain.SeverityWarning,
			Message:  "Weekend pickup on a route through Germany or Austria: truck bans apply",
		})
	}
	if route.Confidence < 80 {
		out = append(out, domain.RouteAlert{
			Severity: domain.SeverityInfo,
			Message:  "Route estimated without live routing data, verify manually",
		})
	}
	return out
}
