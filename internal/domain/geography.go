package domain

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// UnknownCountry marks a coordinate that falls outside every known bounding box.
const UnknownCountry = "XX"

// EuropeanCountries are the ISO codes the routing provider is restricted to.
var EuropeanCountries = []string{"ES", "FR", "DE", "IT", "PL", "NL", "BE", "AT", "CH", "PT", "CZ", "SK", "HU", "SI"}

type countryBox struct {
	code  string
	bound orb.Bound
}

func box(code string, lonMin, lonMax, latMin, latMax float64) countryBox {
	return countryBox{
		code:  code,
		bound: orb.Bound{Min: orb.Point{lonMin, latMin}, Max: orb.Point{lonMax, latMax}},
	}
}

// Boxes overlap at borders and the first match wins, so smaller countries
// come before the neighbours whose boxes would swallow them. Irregular
// borders are split into several boxes.
var countryBoxes = []countryBox{
	box("PT", -9.6, -6.2, 40.9, 42.15),
	box("PT", -9.6, -7.0, 36.9, 40.9),
	box("NL", 3.3, 7.1, 51.3, 53.6),
	box("BE", 2.55, 5.9, 50.7, 51.3),
	box("BE", 3.7, 6.4, 50.3, 50.7),
	box("BE", 4.8, 6.0, 49.5, 50.3),
	box("CH", 5.95, 7.0, 46.12, 46.6),
	box("CH", 6.7, 10.5, 45.83, 47.6),
	box("IT", 7.0, 13.8, 43.8, 46.6),
	box("FR", -5.0, 4.2, 46.0, 51.1),
	box("FR", -1.8, 4.2, 42.6, 46.0),
	box("FR", 4.2, 7.8, 43.0, 49.15),
	box("ES", -9.4, 4.4, 35.9, 43.8),
	box("SI", 13.4, 16.6, 45.4, 46.58),
	box("SK", 16.8, 18.4, 47.7, 49.0),
	box("SK", 18.4, 22.6, 47.9, 49.6),
	box("AT", 9.5, 13.0, 46.6, 47.6),
	box("AT", 13.0, 17.2, 46.4, 48.45),
	box("CZ", 12.5, 18.9, 48.6, 50.25),
	box("HU", 16.1, 22.9, 45.7, 48.6),
	box("DE", 5.9, 14.7, 47.3, 55.1),
	box("PL", 14.1, 24.2, 49.0, 54.9),
	box("IT", 8.0, 16.0, 37.9, 44.0),
	box("IT", 15.0, 18.6, 37.9, 41.9),
	box("IT", 12.4, 15.7, 36.6, 38.3),
}

// CountryAt classifies a coordinate by bounding-box membership.
func CountryAt(c Coordinates) string {
	p := c.Point()
	for _, b := range countryBoxes {
		if b.bound.Contains(p) {
			return b.code
		}
	}
	return UnknownCountry
}

var corridors = map[string][]string{
	"ES-PL": {"ES", "FR", "DE", "CZ", "PL"},
	"ES-CZ": {"ES", "FR", "DE", "CZ"},
	"ES-HU": {"ES", "FR", "CH", "AT", "HU"},
	"ES-SK": {"ES", "FR", "DE", "CZ", "SK"},
	"ES-DE": {"ES", "FR", "DE"},
	"ES-AT": {"ES", "FR", "CH", "AT"},
	"ES-CH": {"ES", "FR", "CH"},
	"ES-IT": {"ES", "FR", "IT"},
	"FR-PL": {"FR", "DE", "CZ", "PL"},
	"FR-CZ": {"FR", "DE", "CZ"},
	"FR-HU": {"FR", "CH", "AT", "HU"},
	"DE-PL": {"DE", "PL"},
	"DE-CZ": {"DE", "CZ"},
	"DE-HU": {"DE", "AT", "HU"},
}

// Corridor returns the known transit sequence for a country pair, in either direction.
func Corridor(from, to string) ([]string, bool) {
	if c, ok := corridors[from+"-"+to]; ok {
		return append([]string(nil), c...), true
	}
	if c, ok := corridors[to+"-"+from]; ok {
		out := make([]string, len(c))
		for i := range c {
			out[i] = c[len(c)-1-i]
		}
		return out, true
	}
	return nil, false
}

// SampleCountries walks the straight line a->b and classifies the endpoints plus
// four interior points, keeping first-seen order and dropping unknown boxes.
func SampleCountries(a, b Coordinates) []string {
	points := []Coordinates{a}
	for i := 1; i <= 4; i++ {
		points = append(points, Interpolate(a, b, float64(i)/5))
	}
	points = append(points, b)

	codes := make([]string, 0, len(points))
	for _, p := range points {
		codes = append(codes, CountryAt(p))
	}
	return DedupeCountries(codes)
}

// InferCountries picks a corridor when one is known, else samples the straight line.
// The result is never empty.
func InferCountries(a, b Coordinates) []string {
	return InferCountriesBetween(a, b, CountryAt(a), CountryAt(b))
}

// InferCountriesBetween is InferCountries with the endpoint countries already
// known, e.g. from geocoding. Known endpoints always open and close the list.
func InferCountriesBetween(a, b Coordinates, from, to string) []string {
	from, to = knownCountry(from, a), knownCountry(to, b)

	var out []string
	if from != UnknownCountry && to != UnknownCountry && from != to {
		if c, ok := Corridor(from, to); ok {
			out = c
		}
	}
	if out == nil {
		out = SampleCountries(a, b)
	}
	out = pinEndpoints(out, from, to)
	if len(out) == 0 {
		return []string{UnknownCountry}
	}
	return out
}

func knownCountry(code string, at Coordinates) string {
	if c, ok := NormalizeCountryCode(code); ok && c != UnknownCountry {
		return c
	}
	return CountryAt(at)
}

// pinEndpoints moves from to the front and to to the back, adding them when missing.
func pinEndpoints(codes []string, from, to string) []string {
	out := make([]string, 0, len(codes)+2)
	if from != UnknownCountry {
		out = append(out, from)
	}
	for _, c := range codes {
		if c != from && c != to {
			out = append(out, c)
		}
	}
	if to != UnknownCountry && to != from {
		out = append(out, to)
	}
	return DedupeCountries(out)
}

// DedupeCountries upper-cases, drops blanks and unknowns, and keeps traversal order.
func DedupeCountries(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || c == UnknownCountry {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ISO 3166-1 numeric ids for the countries the pipeline knows about.
var numericCountries = map[int]string{
	40: "AT", 56: "BE", 100: "BG", 191: "HR", 203: "CZ", 250: "FR", 276: "DE",
	348: "HU", 380: "IT", 442: "LU", 528: "NL", 616: "PL", 620: "PT", 642: "RO",
	703: "SK", 705: "SI", 724: "ES", 756: "CH",
}

// NormalizeCountryCode accepts an alpha-2 code or an ISO numeric id and returns
// the alpha-2 code, or false when unrecognized.
func NormalizeCountryCode(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "0" {
		return "", false
	}
	if n, err := strconv.Atoi(v); err == nil {
		code, ok := numericCountries[n]
		return code, ok
	}
	if len(v) != 2 {
		return "", false
	}
	return strings.ToUpper(v), true
}

var countryNames = map[string]string{
	"spain": "ES", "españa": "ES", "france": "FR", "germany": "DE", "deutschland": "DE",
	"italy": "IT", "italia": "IT", "poland": "PL", "polska": "PL", "netherlands": "NL",
	"belgium": "BE", "austria": "AT", "österreich": "AT", "switzerland": "CH",
	"schweiz": "CH", "portugal": "PT", "czechia": "CZ", "czech republic": "CZ",
	"slovakia": "SK", "hungary": "HU", "slovenia": "SI",
}

// CountryFromName maps an English or local country name to its alpha-2 code.
func CountryFromName(name string) (string, bool) {
	code, ok := countryNames[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}
