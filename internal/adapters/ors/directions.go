package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"freight-quote-service/internal/domain"
	"freight-quote-service/internal/platform/obs"
	"freight-quote-service/internal/ports"
	"net/http"

	"github.com/twpayne/go-polyline"
)

type directionsRequest struct {
	Coordinates [][]float64       `json:"coordinates"`
	ExtraInfo   []string          `json:"extra_info"`
	Options     directionsOptions `json:"options"`
	Preference  string            `json:"preference"`
	Units       string            `json:"units"`
}

type directionsOptions struct {
	AvoidFeatures []string `json:"avoid_features"`
	VehicleType   string   `json:"vehicle_type"`
}

// [startIndex, endIndex, value]; value is a number for most extras but some
// deployments send country codes as strings.
type extraInfo struct {
	Values [][]any `json:"values"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string               `json:"geometry"`
		Extras   map[string]extraInfo `json:"extras"`
	} `json:"routes"`
}

// Directions requests a driving-hgv route avoiding ferries, with country,
// toll and access-restriction metadata.
func (c *Client) Directions(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ ports.Directions, err error) {
	defer obs.Time(ctx, c.logger, "ors.directions")(&err)

	body, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
		ExtraInfo:   []string{"countryinfo", "tollways", "roadaccessrestrictions"},
		Options: directionsOptions{
			AvoidFeatures: []string{"ferries"},
			VehicleType:   "hgv",
		},
		Preference: "recommended",
		Units:      "km",
	})
	if err != nil {
		return ports.Directions{}, fmt.Errorf("encode directions request: %w", err)
	}

	endpoint := c.baseURL + "/directions/driving-hgv"

	var decoded directionsResponse
	err = c.directionsHTTP.DoJSON(ctx, func() (*http.Request, error) {
		return c.directionsHTTP.NewRequest(ctx, http.MethodPost, endpoint, body)
	}, directionsSchema, &decoded)
	if err != nil {
		return ports.Directions{}, fmt.Errorf("directions: %w", err)
	}

	route := decoded.Routes[0]
	out := ports.Directions{
		DistanceKm:      route.Summary.Distance,
		DurationSeconds: route.Summary.Duration,
		ExtrasPresent:   len(route.Extras),
	}

	if route.Geometry != "" {
		geom, err := decodeGeometry(route.Geometry)
		if err != nil {
			// a bad polyline only costs us the geometry, not the route
			c.logger.WarnContext(ctx, "ors: polyline decode failed", "err", err)
		} else {
			out.Geometry = geom
		}
	}

	if ci, ok := route.Extras["countryinfo"]; ok {
		out.Countries = countriesFromExtra(ci)
	}
	if tw, ok := route.Extras["tollways"]; ok {
		out.TollSections = countNonZero(tw)
	}
	if ra, ok := route.Extras["roadaccessrestrictions"]; ok {
		out.RestrictionSegments = countNonZero(ra)
	}

	return out, nil
}

// decodeGeometry turns an encoded polyline ([lat, lng] pairs) into coordinates.
func decodeGeometry(encoded string) ([]domain.Coordinates, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	out := make([]domain.Coordinates, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		out = append(out, domain.Coordinates{Lon: c[1], Lat: c[0]})
	}
	return out, nil
}

func segmentValue(seg []any) (string, bool) {
	if len(seg) < 3 || seg[2] == nil {
		return "", false
	}
	switch v := seg[2].(type) {
	case float64:
		return fmt.Sprintf("%d", int(v)), true
	case string:
		return v, true
	}
	return "", false
}

// countriesFromExtra keeps traversal order and drops unrecognized ids.
func countriesFromExtra(ci extraInfo) []string {
	codes := make([]string, 0, len(ci.Values))
	for _, seg := range ci.Values {
		raw, ok := segmentValue(seg)
		if !ok {
			continue
		}
		if code, ok := domain.NormalizeCountryCode(raw); ok {
			codes = append(codes, code)
		}
	}
	return domain.DedupeCountries(codes)
}

func countNonZero(e extraInfo) int {
	n := 0
	for _, seg := range e.Values {
		if v, ok := segmentValue(seg); ok && v != "0" {
			n++
		}
	}
	return n
}
