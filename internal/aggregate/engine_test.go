package aggregate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/countries"
	"eurometrics/internal/model"
	"eurometrics/internal/store"
	"eurometrics/internal/store/memory"
)

const metric = "gdp_per_capita_ppp"

func testTable(keys ...string) *countries.Table {
	weights := make([]model.CountryWeight, 0, len(keys))
	for _, key := range keys {
		weights = append(weights, model.CountryWeight{Country: key, PopulationFactor: 1})
	}
	return countries.NewTable(weights)
}

func value(country, name string, year int, v float64) model.Observation {
	return model.Observation{Country: country, MetricName: name, Year: year, Value: v, Unit: "international_dollars"}
}

func population(country string, year int, v float64) model.Observation {
	return model.Observation{Country: country, MetricName: model.PopulationMetric, Year: year, Value: v, Unit: "people"}
}

func stored(t *testing.T, st store.Reader, key, name string, year int) model.Observation {
	t.Helper()
	observation, err := st.GetObservation(context.Background(), name, key, year)
	require.NoError(t, err)
	return observation
}

// failingStore rejects upserts for the configured years.
type failingStore struct {
	*memory.Store
	failYears map[int]bool
}

func (s *failingStore) UpsertObservation(ctx context.Context, observation model.Observation) error {
	if s.failYears[observation.Year] {
		return errors.New("disk full")
	}
	return s.Store.UpsertObservation(ctx, observation)
}

func TestCalculateEuropeAggregate_WeightedAverage(t *testing.T) {
	t.Parallel()

	st := memory.New(
		value("a", metric, 2020, 100), value("b", metric, 2020, 200),
		population("a", 2020, 10), population("b", 2020, 30),
	)
	engine := aggregate.NewEngine(st, testTable("a", "b"))

	result, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
	require.NoError(t, err)
	assert.Equal(t, model.MethodPopulationWeighted, result.Method)
	assert.Equal(t, []int{2020}, result.Published)

	got := stored(t, st, model.KeyEurope, metric, 2020)
	assert.InDelta(t, 175.0, got.Value, 1e-9)
	require.NotNil(t, got.Coverage)
	assert.InDelta(t, 1.0, *got.Coverage, 1e-9)
	assert.Equal(t, "international_dollars", got.Unit)
	assert.Equal(t, "Calculated from individual European countries", got.Source)
	require.NotNil(t, result.Latest)
	assert.Equal(t, 2020, result.Latest.Year)
}

func TestCalculateEuropeAggregate_ForwardFilledYearStoresActualCoverage(t *testing.T) {
	t.Parallel()

	st := memory.New(
		value("a", metric, 2020, 100), value("b", metric, 2020, 200), value("b", metric, 2021, 300),
		population("a", 2020, 10), population("b", 2020, 30),
		population("a", 2021, 10), population("b", 2021, 30),
	)
	engine := aggregate.NewEngine(st, testTable("a", "b"))

	_, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
	require.NoError(t, err)

	got := stored(t, st, model.KeyEurope, metric, 2021)
	assert.InDelta(t, 250.0, got.Value, 1e-9)
	require.NotNil(t, got.Coverage)
	assert.InDelta(t, 0.75, *got.Coverage, 1e-9)
	assert.Contains(t, got.Description, "1 countries using forward-filled data")
}

func TestCalculateEuropeAggregate_CoverageBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		small     float64
		published bool
	}{
		{name: "at threshold", small: 30, published: true},
		{name: "below threshold", small: 29, published: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			st := memory.New(
				value("a", metric, 2020, 100), value("b", metric, 2021, 200),
				population("a", 2020, tc.small), population("b", 2020, 100-tc.small),
				population("a", 2021, tc.small), population("b", 2021, 100-tc.small),
			)
			engine := aggregate.NewEngine(st, testTable("a", "b"))

			result, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
			require.NoError(t, err)

			_, getErr := st.GetObservation(context.Background(), metric, model.KeyEurope, 2020)
			if tc.published {
				require.NoError(t, getErr)
				assert.Equal(t, []int{2020, 2021}, result.Published)
				return
			}
			assert.ErrorIs(t, getErr, store.ErrNotFound)
			assert.Equal(t, []int{2021}, result.Published)
			require.Len(t, result.Skipped, 1)
			assert.Equal(t, 2020, result.Skipped[0].Year)
		})
	}
}

func TestCalculateEuropeAggregate_ExtrapolatesYearsWithoutPopulation(t *testing.T) {
	t.Parallel()

	st := memory.New(
		value("a", metric, 2022, 100), value("b", metric, 2023, 300),
		population("a", 2020, 10), population("b", 2020, 100),
	)
	engine := aggregate.NewEngine(st, testTable("a", "b"))

	result, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{2022}, result.Extrapolated)
	assert.Equal(t, []int{2023}, result.Published)
	assert.Empty(t, result.Skipped)

	got := stored(t, st, model.KeyEurope, metric, 2022)
	assert.InDelta(t, 100.0, got.Value, 1e-9)
	require.NotNil(t, got.Coverage)
	assert.InDelta(t, 0.0909, *got.Coverage, 1e-9)
	assert.Contains(t, got.Description, "using 2020 population weights (extrapolated)")

	main := stored(t, st, model.KeyEurope, metric, 2023)
	assert.Contains(t, main.Description, "(using 2020 population weights)")
}

func TestCalculateEuropeAggregate_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := memory.New(
		value("a", metric, 2020, 100.123), value("b", metric, 2020, 200.456), value("a", metric, 2021, 110),
		population("a", 2020, 10), population("b", 2020, 30), population("a", 2021, 11),
	)
	engine := aggregate.NewEngine(st, testTable("a", "b"))

	_, err := engine.CalculateEuropeAggregate(ctx, metric, aggregate.Options{})
	require.NoError(t, err)
	first, err := st.ListObservations(ctx, metric, []string{model.KeyEurope})
	require.NoError(t, err)

	_, err = engine.CalculateEuropeAggregate(ctx, metric, aggregate.Options{})
	require.NoError(t, err)
	second, err := st.ListObservations(ctx, metric, []string{model.KeyEurope})
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestCalculateEuropeAggregate_PrunesStaleYears(t *testing.T) {
	t.Parallel()

	stale := model.Observation{Country: model.KeyEurope, MetricName: metric, Year: 1999, Value: 1, Coverage: model.Float(0.5)}
	st := memory.New(
		stale,
		value("a", metric, 2020, 100), population("a", 2020, 10),
	)
	engine := aggregate.NewEngine(st, testTable("a"))

	result, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{1999}, result.Pruned)

	_, err = st.GetObservation(context.Background(), metric, model.KeyEurope, 1999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCalculateEuropeAggregate_WriteFailureContinues(t *testing.T) {
	t.Parallel()

	previous := model.Observation{Country: model.KeyEurope, MetricName: metric, Year: 2020, Value: 1}
	st := &failingStore{
		Store: memory.New(
			previous,
			value("a", metric, 2020, 100), value("a", metric, 2021, 120),
			population("a", 2020, 10), population("a", 2021, 10),
		),
		failYears: map[int]bool{2020: true},
	}
	engine := aggregate.NewEngine(st, testTable("a"))

	result, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2020, result.Failures[0].Year)
	assert.Equal(t, []int{2021}, result.Published)
	assert.Empty(t, result.Pruned)

	kept := stored(t, st, model.KeyEurope, metric, 2020)
	assert.InDelta(t, 1.0, kept.Value, 1e-9)
}

func TestCalculateEuropeAggregate_UnsupportedMethod(t *testing.T) {
	t.Parallel()

	st := memory.New(value("a", metric, 2020, 100), population("a", 2020, 10))
	engine := aggregate.NewEngine(st, testTable("a"))

	_, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{Method: "median"})
	assert.ErrorIs(t, err, aggregate.ErrUnsupportedAggregationMethod)
}

func TestCalculateEuropeAggregate_SimpleSumPopulation(t *testing.T) {
	t.Parallel()

	st := memory.New(
		population("russia", 2020, 144_000_000), population("germany", 2020, 83_000_000),
		population("russia", 2021, 145_000_000),
	)
	engine := aggregate.NewEngine(st, countries.Default())

	result, err := engine.CalculateEuropeAggregate(context.Background(), model.PopulationMetric, aggregate.Options{MinContributors: 2})
	require.NoError(t, err)
	assert.Equal(t, model.MethodSimpleSum, result.Method)
	assert.Equal(t, []int{2020}, result.Published)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 2021, result.Skipped[0].Year)

	got := stored(t, st, model.KeyEurope, model.PopulationMetric, 2020)
	assert.InDelta(t, 110_880_000.0+83_000_000.0, got.Value, 1e-6)
	assert.Equal(t, "people", got.Unit)
	require.NotNil(t, got.Coverage)
	assert.InDelta(t, 1.0, *got.Coverage, 1e-9)
	assert.Contains(t, got.Description, "Total European population")
}

func TestCalculateEuropeAggregate_ConfigOverrideMinContributors(t *testing.T) {
	t.Parallel()

	st := memory.New(population("germany", 2020, 83_000_000))
	cfg := aggregate.DefaultConfig()
	cfg.Overrides = map[string]aggregate.Override{model.PopulationMetric: {MinContributors: 1}}
	engine := aggregate.NewEngine(st, countries.Default(), aggregate.WithConfig(cfg))

	result, err := engine.CalculateEuropeAggregate(context.Background(), model.PopulationMetric, aggregate.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{2020}, result.Published)
}

func TestCalculateEuropeAggregate_StatusFollowsExactCoverage(t *testing.T) {
	t.Parallel()

	st := memory.New(
		value("a", metric, 2020, 100), value("b", metric, 2020, 200), value("a", metric, 2021, 110),
		population("a", 2020, 10), population("b", 2020, 30),
	)
	core, logs := observer.New(zapcore.DebugLevel)
	engine := aggregate.NewEngine(st, testTable("a", "b"), aggregate.WithLogger(zap.New(core)))

	result, err := engine.CalculateEuropeAggregate(context.Background(), metric, aggregate.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, result.Published)

	status := func(year int) any {
		entries := logs.FilterMessage("year aggregated").FilterField(zap.Int("year", year)).All()
		require.Len(t, entries, 1)
		return entries[0].ContextMap()["status"]
	}
	assert.Equal(t, "complete", status(2020))
	assert.Equal(t, "incomplete", status(2021))

	got := stored(t, st, model.KeyEurope, metric, 2021)
	require.NotNil(t, got.Coverage)
	assert.InDelta(t, 0.25, *got.Coverage, 1e-9)
}
