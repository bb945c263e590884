// Package tollguru prices truck tolls with the TollGuru origin-destination API.
package tollguru

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/httpx"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/platform/schema"
	"freight-quote-service/internal/ports"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://apis.tollguru.com"
	endpoint       = "/toll/v2/origin-destination-waypoints"
)

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Retries int
	Logger  *slog.Logger
}

type Client struct {
	http    *httpx.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(o Options) (*Client, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, errors.New("TollGuru api key is empty")
	}
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	return &Client{
		http: httpx.New(o.Timeout,
			httpx.WithHeader("x-api-key", o.APIKey),
			httpx.WithRetries(o.Retries, 0),
		),
		baseURL: strings.TrimRight(o.BaseURL, "/"),
		logger:  o.Logger,
	}, nil
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type vehicleSpec struct {
	Type          string  `json:"type"`
	Height        float64 `json:"height"`
	Weight        float64 `json:"weight"`
	EmissionClass string  `json:"emissionClass"`
}

type tollRequest struct {
	From            latLng      `json:"from"`
	To              latLng      `json:"to"`
	Vehicle         vehicleSpec `json:"vehicle"`
	ServiceProvider string      `json:"serviceProvider"`
	Units           string      `json:"units"`
}

type tollResponse struct {
	Summary struct {
		Countries []string `json:"countries"`
		Currency  string   `json:"currency"`
	} `json:"summary"`
	Routes []struct {
		Costs struct {
			Tag        *float64 `json:"tag"`
			Cash       *float64 `json:"cash"`
			TagAndCash *float64 `json:"tagAndCash"`
		} `json:"costs"`
		Tolls []struct {
			Country  string   `json:"country"`
			Name     string   `json:"name"`
			Road     string   `json:"road"`
			TagCost  *float64 `json:"tagCost"`
			CashCost *float64 `json:"cashCost"`
		} `json:"tolls"`
	} `json:"routes"`
}

var responseSchema = schema.MustCompile("tollguru.route", `{
  "type": "object",
  "required": ["routes"],
  "properties": {
    "summary": {"type": "object"},
    "routes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "costs": {"type": "object"},
          "tolls": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "tagCost": {"type": ["number", "null"], "minimum": 0},
                "cashCost": {"type": ["number", "null"], "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`)

// EmissionClass maps "euro6" style labels to TollGuru's "euro_6".
func EmissionClass(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "euro_6"
	}
	if strings.HasPrefix(s, "euro") && !strings.Contains(s, "_") {
		return "euro_" + strings.TrimPrefix(s, "euro")
	}
	return s
}

func firstCost(vals ...*float64) (float64, bool) {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return *v, true
		}
	}
	return 0, false
}

func countryCode(raw string) string {
	if code, ok := domain.NormalizeCountryCode(raw); ok {
		return code
	}
	if code, ok := domain.CountryFromName(raw); ok {
		return code
	}
	return domain.UnknownCountry
}

// Tolls implements ports.TollProvider.
func (c *Client) Tolls(ctx context.Context, req ports.TollRequest) (_ ports.TollQuote, err error) {
	defer obs.Time(ctx, c.logger, "tollguru.tolls")(&err)

	axles := req.Vehicle.AxleCount
	if axles < 2 {
		axles = 2
	}

	body, err := json.Marshal(tollRequest{
		From: latLng{Lat: req.From.Lat, Lng: req.From.Lon},
		To:   latLng{Lat: req.To.Lat, Lng: req.To.Lon},
		Vehicle: vehicleSpec{
			Type:          fmt.Sprintf("%dAxlesTruck", axles),
			Height:        req.Vehicle.HeightMeters,
			Weight:        req.Vehicle.WeightTonnes * 1000,
			EmissionClass: EmissionClass(req.Vehicle.EmissionClass),
		},
		ServiceProvider: "here",
		Units:           "metric",
	})
	if err != nil {
		return ports.TollQuote{}, fmt.Errorf("encode toll request: %w", err)
	}

	var decoded tollResponse
	err = c.http.DoJSON(ctx, func() (*http.Request, error) {
		return c.http.NewRequest(ctx, http.MethodPost, c.baseURL+endpoint, body)
	}, responseSchema, &decoded)
	if err != nil {
		return ports.TollQuote{}, fmt.Errorf("tollguru: %w", err)
	}

	route := decoded.Routes[0]
	q := ports.TollQuote{
		Currency: decoded.Summary.Currency,
	}
	if q.Currency == "" {
		q.Currency = "EUR"
	}
	for _, raw := range decoded.Summary.Countries {
		q.Countries = append(q.Countries, countryCode(raw))
	}
	q.Countries = domain.DedupeCountries(q.Countries)

	q.TotalEUR, q.HasCosts = firstCost(route.Costs.Tag, route.Costs.Cash, route.Costs.TagAndCash)

	for _, t := range route.Tolls {
		cost, _ := firstCost(t.TagCost, t.CashCost)
		q.Items = append(q.Items, ports.TollItem{
			Country: countryCode(t.Country),
			Name:    t.Name,
			Road:    t.Road,
			CostEUR: cost,
		})
	}

	return q, nil
}
