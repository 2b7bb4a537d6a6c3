// Package catalog describes metrics: display metadata for charts and the
// unit stored on computed aggregates.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"eurometrics/internal/countries"
	"eurometrics/internal/model"
)

type Entry struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Unit           string `yaml:"unit"`
	Source         string `yaml:"source"`
	Decimals       *int   `yaml:"decimals"`
	HigherIsBetter *bool  `yaml:"higher_is_better"`
}

// Metadata is the chart-facing description of a metric.
type Metadata struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Unit           string `json:"unit"`
	Format         string `json:"format"`
	Decimals       *int   `json:"decimals,omitempty"`
	HigherIsBetter *bool  `json:"higherIsBetter"`
	Source         string `json:"source"`
}

type Catalog struct {
	entries map[string]Entry
}

func New(entries map[string]Entry) *Catalog {
	if entries == nil {
		entries = map[string]Entry{}
	}
	return &Catalog{entries: entries}
}

// Load reads a YAML map of metric name to Entry. An empty path yields an
// empty catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	entries := map[string]Entry{}
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(entries), nil
}

func (c *Catalog) Lookup(metric string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	entry, ok := c.entries[metric]
	return entry, ok
}

// Unit returns the configured unit of a metric, falling back to built-in
// defaults and finally "units".
func (c *Catalog) Unit(metric string) string {
	if entry, ok := c.Lookup(metric); ok && entry.Unit != "" {
		return entry.Unit
	}
	return DefaultUnit(metric)
}

func DefaultUnit(metric string) string {
	switch metric {
	case model.PopulationMetric:
		return "people"
	case "gdp_per_capita_ppp":
		return "international_dollars"
	case "life_expectancy", "healthy_life_expectancy":
		return "years"
	case "birth_rate", "death_rate", "literacy_rate":
		return "rate"
	case "child_mortality_rate", "electricity_access":
		return "%"
	default:
		return "units"
	}
}

// Metadata builds chart metadata. sample, when non-nil, is any stored
// observation of the metric and backs the last-resort fallback.
func (c *Catalog) Metadata(metric string, sample *model.Observation) Metadata {
	if entry, ok := c.Lookup(metric); ok {
		title := entry.Title
		if title == "" {
			title = countries.Titleize(metric)
		}
		higher := entry.HigherIsBetter
		if higher == nil {
			higher = HigherIsBetter(metric)
		}
		return Metadata{
			Title:          title,
			Description:    entry.Description,
			Unit:           entry.Unit,
			Format:         DetectFormat(entry.Unit),
			Decimals:       entry.Decimals,
			HigherIsBetter: higher,
			Source:         detectSource(entry.Source),
		}
	}

	if metadata, ok := builtin[metric]; ok {
		return metadata
	}

	metadata := Metadata{
		Title:          countries.Titleize(metric),
		Description:    "Data for " + countries.Humanize(metric),
		Format:         "decimal",
		HigherIsBetter: boolPtr(true),
		Source:         "Our World in Data",
	}
	if sample != nil {
		if sample.Description != "" {
			metadata.Description = sample.Description
		}
		metadata.Unit = sample.Unit
		if sample.Source != "" {
			metadata.Source = sample.Source
		}
	}
	return metadata
}

var (
	currencyPattern = regexp.MustCompile(`(?i)\$|dollar|currency`)
	yearPattern     = regexp.MustCompile(`(?i)year`)
	peoplePattern   = regexp.MustCompile(`(?i)people|person`)
)

func DetectFormat(unit string) string {
	switch {
	case currencyPattern.MatchString(unit):
		return "currency"
	case strings.Contains(unit, "%"):
		return "percentage"
	case yearPattern.MatchString(unit):
		return "decimal"
	case peoplePattern.MatchString(unit):
		return "integer"
	default:
		return "decimal"
	}
}

var (
	lowerIsBetter = map[string]bool{
		"child_mortality_rate": true,
		"homicide_rate":        true,
		"death_rate":           true,
		"infant_mortality":     true,
		"poverty_rate":         true,
		"unemployment_rate":    true,
	}
	neutral = map[string]bool{
		model.PopulationMetric: true,
		"fertility_rate":       true,
	}
)

// HigherIsBetter returns nil for metrics with no preferred direction.
func HigherIsBetter(metric string) *bool {
	switch {
	case lowerIsBetter[metric]:
		return boolPtr(false)
	case neutral[metric]:
		return nil
	default:
		return boolPtr(true)
	}
}

func detectSource(source string) string {
	switch strings.ToLower(source) {
	case "", "owid":
		return "Our World in Data"
	case "ilo":
		return "International Labour Organization"
	default:
		return source
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}

var builtin = map[string]Metadata{
	"gdp_per_capita_ppp": {
		Title:          "GDP per capita, PPP",
		Description:    "GDP per capita based on purchasing power parity (PPP). PPP GDP is gross domestic product converted to international dollars using purchasing power parity rates.",
		Unit:           "$",
		Format:         "currency",
		HigherIsBetter: boolPtr(true),
		Source:         "Our World in Data - World Bank",
	},
	model.PopulationMetric: {
		Title:       "Population",
		Description: "Total population by country and year.",
		Unit:        "people",
		Format:      "integer",
		Source:      "Our World in Data",
	},
	"child_mortality_rate": {
		Title:          "Child Mortality Rate",
		Description:    "Probability of dying between birth and exactly 5 years of age, expressed per 100 live births.",
		Unit:           "%",
		Format:         "percentage",
		Decimals:       intPtr(2),
		HigherIsBetter: boolPtr(false),
		Source:         "Our World in Data - UN IGME",
	},
	"electricity_access": {
		Title:          "Access to Electricity",
		Description:    "Percentage of population with access to electricity.",
		Unit:           "%",
		Format:         "percentage",
		Decimals:       intPtr(2),
		HigherIsBetter: boolPtr(true),
		Source:         "Our World in Data - World Bank",
	},
	"life_expectancy": {
		Title:          "Life Expectancy",
		Description:    "Average number of years a newborn infant would live if current mortality patterns were to stay the same.",
		Unit:           "years",
		Format:         "decimal",
		Decimals:       intPtr(1),
		HigherIsBetter: boolPtr(true),
		Source:         "Our World in Data - UN Population Division",
	},
}
