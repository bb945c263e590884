// Package ors talks to OpenRouteService for geocoding and heavy-vehicle routing.
package ors

import (
	"errors"
	"freight-quote-service/internal/platform/httpx"
	"log/slog"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://api.openrouteservice.org/v2"
	defaultGeocodeURL = "https://api.openrouteservice.org/geocode"
)

type Options struct {
	APIKey            string
	BaseURL           string
	GeocodeURL        string
	GeocodeTimeout    time.Duration
	DirectionsTimeout time.Duration
	Retries           int
	Logger            *slog.Logger
}

// Client implements ports.Geocoder and ports.RouteProvider.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	geocodeHTTP    *httpx.Client
	directionsHTTP *httpx.Client
	baseURL        string
	geocodeURL     string
	logger         *slog.Logger
}

func NewClient(o Options) (*Client, error) {
	if strings.TrimSpace(o.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.GeocodeURL == "" {
		o.GeocodeURL = defaultGeocodeURL
	}
	if o.GeocodeTimeout <= 0 {
		o.GeocodeTimeout = 8 * time.Second
	}
	if o.DirectionsTimeout <= 0 {
		o.DirectionsTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	auth := httpx.WithHeader("Authorization", o.APIKey)
	retries := httpx.WithRetries(o.Retries, 0)

	return &Client{
		geocodeHTTP:    httpx.New(o.GeocodeTimeout, auth, retries),
		directionsHTTP: httpx.New(o.DirectionsTimeout, auth, retries),
		baseURL:        strings.TrimRight(o.BaseURL, "/"),
		geocodeURL:     strings.TrimRight(o.GeocodeURL, "/"),
		logger:         o.Logger,
	}, nil
}
