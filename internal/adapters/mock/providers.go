// Package mock holds deterministic in-process providers for tests and demos.
package mock

import (
	"context"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/ports"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Geocoder answers from a fixed place -> candidates table.
type Geocoder struct {
	m     map[string][]ports.GeocodeCandidate
	Err   error
	Delay time.Duration
	calls atomic.Int64
}

func NewGeocoder(m map[string][]ports.GeocodeCandidate) *Geocoder {
	norm := make(map[string][]ports.GeocodeCandidate, len(m))
	for k, v := range m {
		norm[strings.ToLower(k)] = v
	}
	return &Geocoder{m: norm}
}

func (g *Geocoder) Calls() int { return int(g.calls.Load()) }

func (g *Geocoder) Search(ctx context.Context, place string, _ domain.Coordinates) ([]ports.GeocodeCandidate, error) {
	g.calls.Add(1)
	if err := wait(ctx, g.Delay); err != nil {
		return nil, err
	}
	if g.Err != nil {
		return nil, g.Err
	}
	c, ok := g.m[strings.ToLower(place)]
	if !ok {
		return nil, fmt.Errorf("no geocode results for %q", place)
	}
	return c, nil
}

// RouteProvider returns the same directions for every request unless Err is set.
type RouteProvider struct {
	Result ports.Directions
	Err    error
	Delay  time.Duration
	calls  atomic.Int64
}

func (p *RouteProvider) Calls() int { return int(p.calls.Load()) }

func (p *RouteProvider) Directions(ctx context.Context, _, _ domain.Coordinates) (ports.Directions, error) {
	p.calls.Add(1)
	if err := wait(ctx, p.Delay); err != nil {
		return ports.Directions{}, err
	}
	if p.Err != nil {
		return ports.Directions{}, p.Err
	}
	return p.Result, nil
}

type TollProvider struct {
	Quote ports.TollQuote
	Err   error
	Delay time.Duration
	calls atomic.Int64

	mu   sync.Mutex
	last ports.TollRequest
}

func (p *TollProvider) Calls() int { return int(p.calls.Load()) }

func (p *TollProvider) LastRequest() ports.TollRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *TollProvider) Tolls(ctx context.Context, req ports.TollRequest) (ports.TollQuote, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.last = req
	p.mu.Unlock()

	if err := wait(ctx, p.Delay); err != nil {
		return ports.TollQuote{}, err
	}
	if p.Err != nil {
		return ports.TollQuote{}, p.Err
	}
	return p.Quote, nil
}

// HolidayProvider keys calendars by country code. Countries listed in Fail
// return an error.
type HolidayProvider struct {
	Calendars map[string][]domain.Holiday
	Fail      map[string]bool
	calls     atomic.Int64
}

func (p *HolidayProvider) Calls() int { return int(p.calls.Load()) }

func (p *HolidayProvider) PublicHolidays(_ context.Context, country string, year int) ([]domain.Holiday, error) {
	p.calls.Add(1)
	if p.Fail[country] {
		return nil, fmt.Errorf("holiday feed unavailable for %s", country)
	}
	var out []domain.Holiday
	for _, h := range p.Calendars[country] {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out, nil
}

type TrafficFeed struct {
	Code  string
	Items []domain.TrafficSituation
	Err   error
}

func (f *TrafficFeed) Country() string { return f.Code }

func (f *TrafficFeed) Situations(context.Context) ([]domain.TrafficSituation, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Items, nil
}

type PriceQuoter struct {
	Offers []domain.PriceQuote
	Err    error
	Delay  time.Duration
}

func (q *PriceQuoter) Quotes(ctx context.Context, _, _ string, _ domain.VehicleProfile) ([]domain.PriceQuote, error) {
	if err := wait(ctx, q.Delay); err != nil {
		return nil, err
	}
	if q.Err != nil {
		return nil, q.Err
	}
	return q.Offers, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
