package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/countries"
	"eurometrics/internal/model"
	"eurometrics/internal/store/memory"
)

func TestRunnerRun_ProcessesEveryMetric(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.New(
		value("germany", metric, 2020, 100), value("france", metric, 2020, 200),
		value("germany", "life_expectancy", 2020, 81), value("france", "life_expectancy", 2020, 83),
		population("germany", 2020, 10), population("france", 2020, 30),
	)
	engine := aggregate.NewEngine(st, countries.Default())

	report, err := aggregate.NewRunner(engine, 2, nil).Run(ctx, nil, aggregate.Options{MinContributors: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Metrics, 3)
	assert.Equal(t, metric, report.Metrics[0].Metric)
	assert.Equal(t, "life_expectancy", report.Metrics[1].Metric)
	assert.Equal(t, model.PopulationMetric, report.Metrics[2].Metric)

	for _, metricReport := range report.Metrics {
		assert.False(t, metricReport.Failed(), metricReport.Metric)
		require.NotEmpty(t, metricReport.Results)
		assert.Equal(t, model.KeyEurope, metricReport.Results[0].Target)
	}

	life := stored(t, st, model.KeyEurope, "life_expectancy", 2020)
	assert.InDelta(t, 82.5, life.Value, 1e-9)
	eu := stored(t, st, model.KeyEuropeanUnion, "life_expectancy", 2020)
	assert.InDelta(t, 82.5, eu.Value, 1e-9)
}

func TestRunnerRun_UnsupportedMethodReportedPerMetric(t *testing.T) {
	t.Parallel()

	st := memory.New(value("germany", metric, 2020, 100), population("germany", 2020, 10))
	engine := aggregate.NewEngine(st, countries.Default())

	report, err := aggregate.NewRunner(engine, 1, nil).Run(context.Background(), []string{metric}, aggregate.Options{Method: "median"})
	require.NoError(t, err)
	require.Len(t, report.Metrics, 1)

	metricReport := report.Metrics[0]
	assert.True(t, metricReport.Failed())
	require.Len(t, metricReport.Errors, 1)
	assert.ErrorIs(t, metricReport.Errors[0], aggregate.ErrUnsupportedAggregationMethod)
	assert.NotEmpty(t, metricReport.Results)
}

func TestRunnerRun_UnknownConfigOverrideFailsOnlyItsEuropeTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.New(
		value("germany", metric, 2020, 100), value("france", metric, 2020, 200),
		value("germany", "life_expectancy", 2020, 81), value("france", "life_expectancy", 2020, 83),
		population("germany", 2020, 10), population("france", 2020, 30),
	)
	cfg := aggregate.DefaultConfig()
	cfg.Overrides = map[string]aggregate.Override{metric: {Method: "median"}}
	engine := aggregate.NewEngine(st, countries.Default(), aggregate.WithConfig(cfg))

	report, err := aggregate.NewRunner(engine, 2, nil).Run(ctx, []string{metric, "life_expectancy"}, aggregate.Options{})
	require.NoError(t, err)
	require.Len(t, report.Metrics, 2)

	overridden := report.Metrics[0]
	require.Len(t, overridden.Errors, 1)
	assert.ErrorIs(t, overridden.Errors[0], aggregate.ErrUnsupportedAggregationMethod)
	require.NotEmpty(t, overridden.Results)
	for _, result := range overridden.Results {
		assert.NotEqual(t, model.KeyEurope, result.Target)
		assert.Equal(t, model.MethodPopulationWeighted, result.Method)
	}
	_, err = st.GetObservation(ctx, metric, model.KeyEurope, 2020)
	assert.Error(t, err)
	eu := stored(t, st, model.KeyEuropeanUnion, metric, 2020)
	assert.InDelta(t, 175, eu.Value, 1e-9)

	other := report.Metrics[1]
	assert.False(t, other.Failed())
	life := stored(t, st, model.KeyEurope, "life_expectancy", 2020)
	assert.InDelta(t, 82.5, life.Value, 1e-9)
}
