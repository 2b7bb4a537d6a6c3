// Package countries holds the static reference data used by the aggregation
// engine: per-country European population factors, display names and the
// named country groups.
package countries

import (
	"strings"

	"eurometrics/internal/model"
)

// Weights scales a country's total population down to its European part.
type Weights interface {
	EuropeanPopulation(country string, population float64) float64
}

// Table is immutable once built.
type Table struct {
	order   []string
	entries map[string]model.CountryWeight
}

func NewTable(weights []model.CountryWeight) *Table {
	t := &Table{
		order:   make([]string, 0, len(weights)),
		entries: make(map[string]model.CountryWeight, len(weights)),
	}
	for _, weight := range weights {
		key := strings.ToLower(strings.TrimSpace(weight.Country))
		if key == "" {
			continue
		}
		weight.Country = key
		if weight.PopulationFactor <= 0 || weight.PopulationFactor > 1 {
			weight.PopulationFactor = 1.0
		}
		if _, exists := t.entries[key]; !exists {
			t.order = append(t.order, key)
		}
		t.entries[key] = weight
	}
	return t
}

// Default returns the reference European table.
func Default() *Table {
	return NewTable(defaultWeights)
}

// Factor returns the population factor, 1.0 for unknown countries.
func (t *Table) Factor(country string) float64 {
	if t == nil {
		return 1.0
	}
	entry, ok := t.entries[strings.ToLower(country)]
	if !ok || entry.PopulationFactor <= 0 {
		return 1.0
	}
	return entry.PopulationFactor
}

// EuropeanPopulation scales a total population down to its European portion.
func (t *Table) EuropeanPopulation(country string, population float64) float64 {
	if country == "" || population < 0 {
		return 0
	}
	return population * t.Factor(country)
}

// Countries returns every European country key in table order.
func (t *Table) Countries() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Name returns a human-readable name for a country or aggregate key.
func (t *Table) Name(country string) string {
	if name, ok := aggregateNames[country]; ok {
		return name
	}
	if t != nil {
		if entry, ok := t.entries[country]; ok && entry.Name != "" {
			return entry.Name
		}
	}
	if name, ok := extraNames[country]; ok {
		return name
	}
	return Titleize(country)
}

// Humanize mirrors the "gdp_per_capita" -> "Gdp per capita" convention used
// in stored descriptions.
func Humanize(key string) string {
	text := strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
	if text == "" {
		return ""
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

func Titleize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

var aggregateNames = map[string]string{
	model.KeyEurope:        "Europe",
	model.KeyEuropeanUnion: "EU-27",
	model.KeyEurozone:      "Eurozone",
	model.KeyNonEuroEU:     "Non-€ EU",
	model.KeyNonEUEurope:   "Non-EU Europe",
}

var extraNames = map[string]string{
	"usa":   "United States",
	"china": "China",
	"india": "India",
}
