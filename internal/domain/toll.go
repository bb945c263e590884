package domain

// CountryCost is a cost line attributed to one country.
type CountryCost struct {
	Country string  `json:"country"`
	CostEUR float64 `json:"cost"`
}

type SpecialToll struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	CostEUR float64 `json:"cost"`
}

// TollResult is the toll estimate for one route and vehicle.
// TotalCostEUR equals the sum of Breakdown; vignette shares are already folded
// into the breakdown line of their country and repeated in Vignettes.
type TollResult struct {
	TotalCostEUR float64       `json:"totalCostEUR"`
	Currency     string        `json:"currency"`
	Breakdown    []CountryCost `json:"perCountryBreakdown"`
	Vignettes    []CountryCost `json:"vignettes"`
	SpecialTolls []SpecialToll `json:"specialTolls"`
	TollCount    int           `json:"tollCount"`
	Confidence   int           `json:"confidence"`
	Source       Source        `json:"source"`
	Method       string        `json:"method"`
}

// annual vignette prices for heavy vehicles, EUR
var vignetteAnnualEUR = map[string]float64{
	"AT": 440, "CH": 400, "CZ": 620, "SK": 500,
	"SI": 380, "HU": 490, "BG": 1050, "RO": 960,
}

// VignetteDailyEUR returns the per-day share of the annual vignette for a country.
func VignetteDailyEUR(country string) (float64, bool) {
	annual, ok := vignetteAnnualEUR[country]
	if !ok {
		return 0, false
	}
	return Round2(annual / 365), true
}
