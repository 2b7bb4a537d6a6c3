package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configName = ".eurometrics"
	configType = "yaml"
	envPrefix  = "EUROMETRICS"
)

// Defaults.
const (
	DefaultDatabasePath            = "eurometrics.db"
	DefaultLogLevel                = "info"
	DefaultLogFormat               = "json"
	DefaultWorkers                 = 4
	DefaultMinCoverage             = 0.30
	DefaultIncompleteThreshold     = 0.70
	DefaultMinContributors         = 20
	DefaultGroupContributorRatio   = 0.1
	DefaultGroupContributorFloor   = 5
	DefaultGroupContributorCeiling = 20
	DefaultOutDir                  = "site/data"
	DefaultStartYear               = 2000
	DefaultEndYear                 = 2024
)

// Load reads configuration from defaults, an optional YAML file, and
// EUROMETRICS_* environment variables, in increasing priority. A .env file
// in the working directory is loaded into the environment first.
// An empty configPath searches the working directory and $HOME.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("aggregation.workers", DefaultWorkers)
	v.SetDefault("aggregation.min_coverage", DefaultMinCoverage)
	v.SetDefault("aggregation.incomplete_threshold", DefaultIncompleteThreshold)
	v.SetDefault("aggregation.min_contributors", DefaultMinContributors)
	v.SetDefault("aggregation.group_contributor_ratio", DefaultGroupContributorRatio)
	v.SetDefault("aggregation.group_contributor_floor", DefaultGroupContributorFloor)
	v.SetDefault("aggregation.group_contributor_ceiling", DefaultGroupContributorCeiling)

	v.SetDefault("reference.countries_file", "")
	v.SetDefault("reference.catalog_file", "")

	v.SetDefault("metrics.textfile_path", "")

	v.SetDefault("publish.out_dir", DefaultOutDir)
	v.SetDefault("publish.start_year", DefaultStartYear)
	v.SetDefault("publish.end_year", DefaultEndYear)
}
