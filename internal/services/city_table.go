package services

import (
	"freight-quote-service/internal/domain"
	"strings"
)

// europeCentroid is the last-resort position for unknown places.
var europeCentroid = domain.Coordinates{Lon: 10, Lat: 50}

type city struct {
	coord   domain.Coordinates
	country string
}

// Major European freight hubs, keyed by folded name. Spanish and English
// spellings share one entry.
var cityTable = map[string]city{}

func init() {
	add := func(country string, c domain.Coordinates, names ...string) {
		for _, n := range names {
			cityTable[fold(n)] = city{coord: c, country: country}
		}
	}

	add("ES", domain.Coordinates{Lon: -3.7038, Lat: 40.4168}, "Madrid")
	add("ES", domain.Coordinates{Lon: 2.1734, Lat: 41.3851}, "Barcelona")
	add("ES", domain.Coordinates{Lon: -0.3763, Lat: 39.4699}, "Valencia")
	add("ES", domain.Coordinates{Lon: -5.9845, Lat: 37.3891}, "Sevilla", "Seville")
	add("ES", domain.Coordinates{Lon: -0.8891, Lat: 41.6488}, "Zaragoza")
	add("ES", domain.Coordinates{Lon: -2.935, Lat: 43.263}, "Bilbao")
	add("FR", domain.Coordinates{Lon: 2.3522, Lat: 48.8566}, "París", "Paris")
	add("FR", domain.Coordinates{Lon: 4.8357, Lat: 45.764}, "Lyon")
	add("FR", domain.Coordinates{Lon: 5.3698, Lat: 43.2965}, "Marsella", "Marseille")
	add("FR", domain.Coordinates{Lon: 1.4442, Lat: 43.6047}, "Toulouse")
	add("IT", domain.Coordinates{Lon: 9.19, Lat: 45.4642}, "Milán", "Milan", "Milano")
	add("IT", domain.Coordinates{Lon: 12.4964, Lat: 41.9028}, "Roma", "Rome")
	add("IT", domain.Coordinates{Lon: 14.2681, Lat: 40.8518}, "Nápoles", "Naples", "Napoli")
	add("IT", domain.Coordinates{Lon: 11.2558, Lat: 43.7696}, "Florencia", "Florence", "Firenze")
	add("IT", domain.Coordinates{Lon: 7.6869, Lat: 45.0703}, "Turín", "Turin", "Torino")
	add("DE", domain.Coordinates{Lon: 13.405, Lat: 52.52}, "Berlín", "Berlin")
	add("DE", domain.Coordinates{Lon: 11.582, Lat: 48.1351}, "Múnich", "Munich", "München")
	add("DE", domain.Coordinates{Lon: 9.9937, Lat: 53.5511}, "Hamburgo", "Hamburg")
	add("DE", domain.Coordinates{Lon: 8.6821, Lat: 50.1109}, "Fráncfort", "Frankfurt")
	add("PL", domain.Coordinates{Lon: 21.0122, Lat: 52.2297}, "Varsovia", "Warsaw", "Warszawa")
	add("PL", domain.Coordinates{Lon: 19.945, Lat: 50.0647}, "Cracovia", "Krakow", "Kraków")
	add("CZ", domain.Coordinates{Lon: 14.4378, Lat: 50.0755}, "Praga", "Prague", "Praha")
	add("NL", domain.Coordinates{Lon: 4.9041, Lat: 52.3676}, "Ámsterdam", "Amsterdam")
	add("NL", domain.Coordinates{Lon: 4.4777, Lat: 51.9244}, "Róterdam", "Rotterdam")
	add("BE", domain.Coordinates{Lon: 4.3517, Lat: 50.8503}, "Bruselas", "Brussels", "Bruxelles")
	add("PT", domain.Coordinates{Lon: -9.1393, Lat: 38.7223}, "Lisboa", "Lisbon")
	add("PT", domain.Coordinates{Lon: -8.6291, Lat: 41.1579}, "Oporto", "Porto")
	add("AT", domain.Coordinates{Lon: 16.3738, Lat: 48.2082}, "Viena", "Vienna", "Wien")
	add("CH", domain.Coordinates{Lon: 8.5417, Lat: 47.3769}, "Zúrich", "Zurich")
	add("SK", domain.Coordinates{Lon: 17.1077, Lat: 48.1486}, "Bratislava")
	add("HU", domain.Coordinates{Lon: 19.0402, Lat: 47.4979}, "Budapest")
}

// lookupCity tries the full name, then the part before the first comma.
func lookupCity(place string) (city, bool) {
	key := fold(place)
	if c, ok := cityTable[key]; ok {
		return c, true
	}
	if head, _, found := strings.Cut(key, ","); found {
		c, ok := cityTable[strings.TrimSpace(head)]
		return c, ok
	}
	return city{}, false
}
