package ors

import (
	"context"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"net/http"
	"strconv"
	"strings"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Name        string  `json:"name"`
			Label       string  `json:"label"`
			Layer       string  `json:"layer"`
			Confidence  float64 `json:"confidence"`
			CountryCode string  `json:"country_code"`
			Country     string  `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

// Search resolves a place name with /geocode/search, limited to the European
// countries the pipeline routes through. It returns up to three candidates.
func (c *Client) Search(
	ctx context.Context,
	place string,
	focus domain.Coordinates,
) (_ []ports.GeocodeCandidate, err error) {
	defer obs.Time(ctx, c.logger, "ors.geocode")(&err)

	endpoint := c.geocodeURL + "/search"

	var decoded geocodeResponse
	err = c.geocodeHTTP.DoJSON(ctx, func() (*http.Request, error) {
		req, err := c.geocodeHTTP.NewRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", place)
		q.Set("boundary.country", strings.Join(domain.EuropeanCountries, ","))
		q.Set("size", "3")
		q.Set("layers", "locality,region")
		q.Set("focus.point.lon", strconv.FormatFloat(focus.Lon, 'f', 4, 64))
		q.Set("focus.point.lat", strconv.FormatFloat(focus.Lat, 'f', 4, 64))
		req.URL.RawQuery = q.Encode()
		return req, nil
	}, geocodeSchema, &decoded)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", place, err)
	}

	out := make([]ports.GeocodeCandidate, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		coords := f.Geometry.Coordinates
		if len(coords) < 2 {
			continue
		}
		coord := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
		if !coord.Valid() {
			continue
		}

		out = append(out, ports.GeocodeCandidate{
			Label:       f.Properties.Label,
			Name:        f.Properties.Name,
			Layer:       f.Properties.Layer,
			Confidence:  f.Properties.Confidence,
			CountryCode: strings.ToUpper(f.Properties.CountryCode),
			CountryName: f.Properties.Country,
			Coord:       coord,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no geocode results for %q", place)
	}
	return out, nil
}
