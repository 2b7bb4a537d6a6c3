package config

import (
	"errors"
	"fmt"
	"strings"

	"eurometrics/internal/aggregate"
)

// Config is the top-level configuration. Field tags use mapstructure for
// viper unmarshalling.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Log         LogConfig         `mapstructure:"log"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Reference   ReferenceConfig   `mapstructure:"reference"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Publish     PublishConfig     `mapstructure:"publish"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AggregationConfig struct {
	Workers                 int                           `mapstructure:"workers"`
	MinCoverage             float64                       `mapstructure:"min_coverage"`
	IncompleteThreshold     float64                       `mapstructure:"incomplete_threshold"`
	MinContributors         int                           `mapstructure:"min_contributors"`
	GroupContributorRatio   float64                       `mapstructure:"group_contributor_ratio"`
	GroupContributorFloor   int                           `mapstructure:"group_contributor_floor"`
	GroupContributorCeiling int                           `mapstructure:"group_contributor_ceiling"`
	Overrides               map[string]aggregate.Override `mapstructure:"overrides"`
}

// ReferenceConfig points at optional YAML files overriding built-in data.
type ReferenceConfig struct {
	CountriesFile string `mapstructure:"countries_file"`
	CatalogFile   string `mapstructure:"catalog_file"`
}

type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

type PublishConfig struct {
	OutDir    string `mapstructure:"out_dir"`
	StartYear int    `mapstructure:"start_year"`
	EndYear   int    `mapstructure:"end_year"`
}

var (
	ErrInvalidCoverage  = errors.New("coverage thresholds must be within [0, 1]")
	ErrInvalidWorkers   = errors.New("aggregation workers must be positive")
	ErrInvalidMinimum   = errors.New("contributor minimums must be positive")
	ErrInvalidYearRange = errors.New("publish start year must not be after end year")
	ErrInvalidLogFormat = errors.New("log format must be json or console")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	a := c.Aggregation
	if a.Workers < 1 {
		return ErrInvalidWorkers
	}
	if !inUnitRange(a.MinCoverage) || !inUnitRange(a.IncompleteThreshold) || !inUnitRange(a.GroupContributorRatio) {
		return ErrInvalidCoverage
	}
	if a.MinContributors < 1 || a.GroupContributorFloor < 1 || a.GroupContributorCeiling < a.GroupContributorFloor {
		return ErrInvalidMinimum
	}
	for metric, override := range a.Overrides {
		if override.MinContributors < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidMinimum, metric)
		}
	}
	if c.Publish.StartYear > c.Publish.EndYear {
		return ErrInvalidYearRange
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return ErrInvalidLogFormat
	}
	return nil
}

// Engine converts the aggregation section into engine settings.
func (a AggregationConfig) Engine() aggregate.Config {
	return aggregate.Config{
		MinCoverage:             a.MinCoverage,
		IncompleteThreshold:     a.IncompleteThreshold,
		MinContributors:         a.MinContributors,
		GroupContributorRatio:   a.GroupContributorRatio,
		GroupContributorFloor:   a.GroupContributorFloor,
		GroupContributorCeiling: a.GroupContributorCeiling,
		Overrides:               a.Overrides,
	}
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
