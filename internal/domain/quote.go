package domain

import "time"

// PriceQuote is an indicative price offered by a third-party carrier source.
type PriceQuote struct {
	Provider string  `json:"provider"`
	PriceEUR float64 `json:"priceEUR"`
	Days     int     `json:"transitDays"`
}

type RouteAlert struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// DeliveryWindow is the expected delivery date and its +/- one day window.
// Dates are YYYY-MM-DD.
type DeliveryWindow struct {
	Estimated    string  `json:"estimated"`
	Earliest     string  `json:"earliest"`
	Latest       string  `json:"latest"`
	TransitDays  int     `json:"transitDays"`
	BusinessDays int     `json:"businessDays"`
	DelayDays    float64 `json:"delayDays"`
	Confidence   int     `json:"confidence"`
}

// AggregatedQuoteInputs is built once per quote request and never mutated afterwards.
type AggregatedQuoteInputs struct {
	RequestID         string             `json:"requestId"`
	Route             RouteResult        `json:"route"`
	Toll              TollResult         `json:"toll"`
	Restrictions      RestrictionsResult `json:"restrictions"`
	Vehicle           VehicleProfile     `json:"vehicle"`
	PickupDate        string             `json:"pickupDate"`
	PriceQuotes       []PriceQuote       `json:"priceQuotes"`
	RouteAlerts       []RouteAlert       `json:"routeAlerts"`
	Delivery          DeliveryWindow     `json:"delivery"`
	OverallConfidence int                `json:"overallConfidence"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	ValidUntil        time.Time          `json:"validUntil"`
}
