package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/config"
	"eurometrics/internal/model"
)

func validConfig() config.Config {
	return config.Config{
		Log: config.LogConfig{Level: "info", Format: "json"},
		Aggregation: config.AggregationConfig{
			Workers:                 2,
			MinCoverage:             0.3,
			IncompleteThreshold:     0.7,
			MinContributors:         20,
			GroupContributorRatio:   0.1,
			GroupContributorFloor:   5,
			GroupContributorCeiling: 20,
		},
		Publish: config.PublishConfig{StartYear: 2000, EndYear: 2024},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "zero workers", mutate: func(c *config.Config) { c.Aggregation.Workers = 0 }, want: config.ErrInvalidWorkers},
		{name: "coverage above one", mutate: func(c *config.Config) { c.Aggregation.MinCoverage = 1.5 }, want: config.ErrInvalidCoverage},
		{name: "negative ratio", mutate: func(c *config.Config) { c.Aggregation.GroupContributorRatio = -0.1 }, want: config.ErrInvalidCoverage},
		{name: "ceiling below floor", mutate: func(c *config.Config) { c.Aggregation.GroupContributorCeiling = 2 }, want: config.ErrInvalidMinimum},
		{name: "reversed years", mutate: func(c *config.Config) { c.Publish.StartYear = 2030 }, want: config.ErrInvalidYearRange},
		{name: "text log format", mutate: func(c *config.Config) { c.Log.Format = "text" }, want: config.ErrInvalidLogFormat},
		{
			name: "unknown override method is left to the engine",
			mutate: func(c *config.Config) {
				c.Aggregation.Overrides = map[string]aggregate.Override{"gdp": {Method: "median"}}
			},
		},
		{
			name: "negative override minimum",
			mutate: func(c *config.Config) {
				c.Aggregation.Overrides = map[string]aggregate.Override{"gdp": {MinContributors: -1}}
			},
			want: config.ErrInvalidMinimum,
		},
		{
			name: "minimum-only override",
			mutate: func(c *config.Config) {
				c.Aggregation.Overrides = map[string]aggregate.Override{"gdp": {MinContributors: 3}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/metrics.db
aggregation:
  min_coverage: 0.4
  overrides:
    energy_use:
      method: simple_sum
      min_contributors: 3
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/metrics.db", cfg.Database.Path)
	assert.InDelta(t, 0.4, cfg.Aggregation.MinCoverage, 1e-9)
	assert.InDelta(t, config.DefaultIncompleteThreshold, cfg.Aggregation.IncompleteThreshold, 1e-9)
	assert.Equal(t, config.DefaultWorkers, cfg.Aggregation.Workers)
	assert.Equal(t, config.DefaultOutDir, cfg.Publish.OutDir)
	assert.Equal(t, aggregate.Override{Method: model.MethodSimpleSum, MinContributors: 3}, cfg.Aggregation.Overrides["energy_use"])

	engine := cfg.Aggregation.Engine()
	assert.InDelta(t, 0.4, engine.MinCoverage, 1e-9)
	assert.Equal(t, config.DefaultGroupContributorCeiling, engine.GroupContributorCeiling)
}

func TestLoad_InvalidFileFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aggregation:\n  workers: 0\n"), 0o600))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestLoad_UnknownOverrideMethodLoads(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aggregation:
  overrides:
    gdp_per_capita_ppp:
      method: median
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.Method("median"), cfg.Aggregation.Overrides["gdp_per_capita_ppp"].Method)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aggregation:\n  workers: 2\n"), 0o600))
	t.Setenv("EUROMETRICS_AGGREGATION_WORKERS", "8")
	t.Setenv("EUROMETRICS_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Aggregation.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}
