package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keywords holds the configurable match lists used when classifying provider
// text. Matching is case and accent insensitive.
type Keywords struct {
	SpecialTolls     []string `koanf:"specialTolls"`
	TruckRelevance   []string `koanf:"truckRelevance"`
	CriticalHolidays []string `koanf:"criticalHolidays"`
}

func DefaultKeywords() Keywords {
	return Keywords{
		SpecialTolls: []string{"tunnel", "túnel", "bridge", "puente", "mont blanc", "fréjus", "brenner"},
		TruckRelevance: []string{
			"truck", "camión", "pesado", "hgv", "lorry", "vehicle restriction",
			"weight limit", "height limit", "tonnage", "comercial",
		},
		CriticalHolidays: []string{
			"christmas", "navidad", "new year", "año nuevo", "easter sunday", "domingo de pascua",
		},
	}
}

// withDefaults fills empty lists from DefaultKeywords.
func (k Keywords) withDefaults() Keywords {
	d := DefaultKeywords()
	if len(k.SpecialTolls) == 0 {
		k.SpecialTolls = d.SpecialTolls
	}
	if len(k.TruckRelevance) == 0 {
		k.TruckRelevance = d.TruckRelevance
	}
	if len(k.CriticalHolidays) == 0 {
		k.CriticalHolidays = d.CriticalHolidays
	}
	return k
}

// matchAny returns the first keyword contained in text.
func matchAny(text string, keywords []string) (string, bool) {
	folded := fold(text)
	for _, kw := range keywords {
		if kw = fold(kw); kw != "" && strings.Contains(folded, kw) {
			return kw, true
		}
	}
	return "", false
}

// fold lower-cases, strips diacritics, and collapses whitespace.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
