package model

import "github.com/shopspring/decimal"

// Method names an aggregation strategy.
type Method string

const (
	MethodPopulationWeighted     Method = "population_weighted"
	MethodPopulationWeightedRate Method = "population_weighted_rate"
	MethodSimpleSum              Method = "simple_sum"
)

// PopulationMetric is the metric used to weight every other metric.
const PopulationMetric = "population"

// Synthetic country keys written by the aggregation engine.
const (
	KeyEurope        = "europe"
	KeyEuropeanUnion = "european_union"
	KeyEurozone      = "eurozone"
	KeyNonEuroEU     = "non_euro_eu"
	KeyNonEUEurope   = "non_eu_europe"
)

// AggregateKeys lists the synthetic keys known to consumers.
var AggregateKeys = []string{KeyEurope, KeyEuropeanUnion, KeyEurozone, KeyNonEuroEU, KeyNonEUEurope}

// IsAggregateKey reports whether country is one of the synthetic group keys.
func IsAggregateKey(country string) bool {
	for _, key := range AggregateKeys {
		if key == country {
			return true
		}
	}
	return false
}

type Observation struct {
	Country     string   `validate:"required"`
	MetricName  string   `validate:"required"`
	Year        int      `validate:"gte=1900,notfuture"`
	Value       float64  `validate:"gt=0"`
	Unit        string   `validate:"required"`
	Source      string
	Description string
	Coverage    *float64 `validate:"omitempty,gte=0,lte=1"`
}

// YearValue is a single point of a country series.
type YearValue struct {
	Year  int
	Value float64
}

type CountryWeight struct {
	Country          string  `yaml:"country"`
	PopulationFactor float64 `yaml:"population_factor"`
	Region           string  `yaml:"region"`
	Name             string  `yaml:"name"`
}

type CountryGroup struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name"`
	Members         []string `yaml:"members"`
	MinContributors int      `yaml:"min_contributors"`
	SkipWhenEmpty   bool     `yaml:"skip_when_empty"`
}

// Stored precision mirrors the metrics table: decimal(15,2) values, decimal(5,4) coverage.
const (
	valuePlaces    = 2
	coveragePlaces = 4
)

func RoundValue(value float64) float64 {
	return decimal.NewFromFloat(value).Round(valuePlaces).InexactFloat64()
}

func RoundCoverage(coverage float64) float64 {
	return decimal.NewFromFloat(coverage).Round(coveragePlaces).InexactFloat64()
}

// Float returns a pointer to v, for optional fields such as Coverage.
func Float(v float64) *float64 {
	return &v
}
