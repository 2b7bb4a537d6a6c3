// Package aggregate turns per-country observations into population-weighted
// regional series (Europe and the configured country groups) with a coverage
// score per year.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"eurometrics/internal/catalog"
	"eurometrics/internal/countries"
	"eurometrics/internal/metrics"
	"eurometrics/internal/model"
	"eurometrics/internal/store"
)

const (
	europeSource = "Calculated from individual European countries"
	groupSource  = "Calculated from member countries"
)

// Target is one country set whose aggregate is written under Key.
type Target struct {
	Key             string
	Label           string
	Countries       []string
	MinContributors int
	Source          string
	group           bool
}

func (t Target) weightNoun() string {
	if t.group {
		return "member"
	}
	return "country"
}

// Override pins the method or minimum contributor count for one metric.
type Override struct {
	Method          model.Method `mapstructure:"method"`
	MinContributors int          `mapstructure:"min_contributors"`
}

type Config struct {
	// MinCoverage is the effective coverage a year needs to be published.
	MinCoverage float64
	// IncompleteThreshold separates complete from incomplete years in logs.
	IncompleteThreshold float64
	// MinContributors applies to the Europe sum when nothing more specific is set.
	MinContributors int

	GroupContributorRatio   float64
	GroupContributorFloor   int
	GroupContributorCeiling int

	Overrides map[string]Override
}

func DefaultConfig() Config {
	return Config{
		MinCoverage:             0.30,
		IncompleteThreshold:     0.70,
		MinContributors:         20,
		GroupContributorRatio:   0.1,
		GroupContributorFloor:   5,
		GroupContributorCeiling: 20,
	}
}

// Options are per-call overrides. Zero values mean "not set".
type Options struct {
	Method          model.Method
	MinContributors int
}

type SkippedYear struct {
	Year   int
	Reason string
}

type WriteFailure struct {
	Year int
	Op   string
	Err  error
}

// Result summarizes one metric/target run.
type Result struct {
	Metric       string
	Target       string
	Method       model.Method
	Published    []int
	Extrapolated []int
	Skipped      []SkippedYear
	Failures     []WriteFailure
	Pruned       []int
	Latest       *model.Observation
	Elapsed      time.Duration
}

// Stored returns the number of years written in this run.
func (r Result) Stored() int {
	return len(r.Published) + len(r.Extrapolated)
}

type Engine struct {
	store   store.Store
	weights *countries.Table
	groups  []model.CountryGroup
	catalog *catalog.Catalog
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Recorder
}

type Option func(*Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

func WithGroups(groups []model.CountryGroup) Option {
	return func(e *Engine) {
		e.groups = groups
	}
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = recorder
	}
}

func NewEngine(st store.Store, weights *countries.Table, opts ...Option) *Engine {
	if weights == nil {
		weights = countries.Default()
	}
	e := &Engine{
		store:   st,
		weights: weights,
		groups:  countries.DefaultGroups(),
		cfg:     DefaultConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Groups() []model.CountryGroup {
	return e.groups
}

// CalculateEuropeAggregate writes the "europe" series for metric over every
// European country that has at least one observation of it.
func (e *Engine) CalculateEuropeAggregate(ctx context.Context, metric string, opts Options) (Result, error) {
	members, err := e.countriesWithData(ctx, metric, e.weights.Countries())
	if err != nil {
		return Result{Metric: metric, Target: model.KeyEurope}, err
	}
	target := Target{
		Key:             model.KeyEurope,
		Label:           "European",
		Countries:       members,
		MinContributors: e.minContributors(metric, opts, nil),
		Source:          europeSource,
	}
	return e.calculate(ctx, metric, e.method(metric, opts), target)
}

func (e *Engine) method(metric string, opts Options) model.Method {
	if opts.Method != "" {
		return opts.Method
	}
	return SelectMethod(metric, e.cfg.Overrides[metric].Method)
}

// minContributors resolves the simple-sum contributor floor. Explicit values
// win in call, metric, group order; otherwise Europe uses the fixed default
// and groups scale with their size.
func (e *Engine) minContributors(metric string, opts Options, group *model.CountryGroup) int {
	if opts.MinContributors > 0 {
		return opts.MinContributors
	}
	if override := e.cfg.Overrides[metric].MinContributors; override > 0 {
		return override
	}
	if group == nil {
		return e.cfg.MinContributors
	}
	if group.MinContributors > 0 {
		return group.MinContributors
	}
	return scaledMinimum(len(group.Members), e.cfg.GroupContributorRatio, e.cfg.GroupContributorFloor, e.cfg.GroupContributorCeiling)
}

func scaledMinimum(size int, ratio float64, floor, ceiling int) int {
	n := int(math.Ceil(float64(size) * ratio))
	if n < floor {
		n = floor
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	if n > size {
		n = size
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (e *Engine) calculate(ctx context.Context, metric string, method model.Method, target Target) (Result, error) {
	start := time.Now()
	result := Result{Metric: metric, Target: target.Key, Method: method}

	var err error
	switch {
	case isWeighted(method):
		err = e.runWeighted(ctx, metric, method, target, &result)
	case method == model.MethodSimpleSum:
		err = e.runSum(ctx, metric, target, &result)
	default:
		return result, fmt.Errorf("%w: %q", ErrUnsupportedAggregationMethod, method)
	}
	if err != nil {
		return result, fmt.Errorf("aggregate %s for %s: %w", metric, target.Key, err)
	}

	e.prune(ctx, metric, target, &result)
	result.Elapsed = time.Since(start)
	e.metrics.Observe(target.Key, result.Elapsed)
	e.logger.Info("aggregate complete",
		zap.String("metric", metric),
		zap.String("target", target.Key),
		zap.String("method", string(method)),
		zap.Int("published", len(result.Published)),
		zap.Int("extrapolated", len(result.Extrapolated)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

// populationYears returns the population years of the set and its latest one.
func populationYears(population SeriesCache) (map[int]bool, int, bool) {
	years := population.Years()
	set := make(map[int]bool, len(years))
	for _, year := range years {
		set[year] = true
	}
	if len(years) == 0 {
		return set, 0, false
	}
	return set, years[len(years)-1], true
}

func (e *Engine) runWeighted(ctx context.Context, metric string, method model.Method, target Target, result *Result) error {
	metricCache, err := LoadCache(ctx, e.store, metric, target.Countries)
	if err != nil {
		return err
	}
	populationCache, err := LoadCache(ctx, e.store, model.PopulationMetric, target.Countries)
	if err != nil {
		return err
	}
	popYears, maxPopulationYear, _ := populationYears(populationCache)
	unit := e.unit(ctx, metric)
	metricYears := metricCache.Years()

	handled := make(map[int]bool, len(metricYears))
	var skipped []SkippedYear
	for _, year := range metricYears {
		if err := ctx.Err(); err != nil {
			return err
		}
		populationYear := year
		if !popYears[year] {
			populationYear = maxPopulationYear
		}
		yr := aggregateYear(yearInput{
			Year:           year,
			Countries:      target.Countries,
			Metric:         metricCache,
			Population:     populationCache,
			PopulationYear: populationYear,
			Weights:        e.weights,
		})

		if yr.EffectiveCoverage < e.cfg.MinCoverage || !yr.HasValue {
			skipped = append(skipped, SkippedYear{Year: year, Reason: "insufficient coverage"})
			e.logger.Info("skipping year",
				zap.String("metric", metric),
				zap.String("target", target.Key),
				zap.Int("year", year),
				zap.Float64("effective_coverage", yr.EffectiveCoverage),
				zap.Float64("min_coverage", e.cfg.MinCoverage),
			)
			continue
		}

		handled[year] = true
		observation := model.Observation{
			Country:     target.Key,
			MetricName:  metric,
			Year:        year,
			Value:       model.RoundValue(yr.Value),
			Unit:        unit,
			Source:      target.Source,
			Description: describeWeighted(metric, method, target, yr, maxPopulationYear),
			Coverage:    model.Float(model.RoundCoverage(yr.ActualCoverage)),
		}
		if !e.write(ctx, observation, string(method), "main", result) {
			continue
		}
		result.Published = append(result.Published, year)

		status := "complete"
		if yr.ActualCoverage < e.cfg.IncompleteThreshold {
			status = "incomplete"
		}
		e.logger.Debug("year aggregated",
			zap.String("metric", metric),
			zap.String("target", target.Key),
			zap.Int("year", year),
			zap.String("status", status),
			zap.Float64("actual_coverage", yr.ActualCoverage),
			zap.Float64("effective_coverage", yr.EffectiveCoverage),
			zap.Int("forward_filled", yr.ForwardFilledCountries),
		)
	}

	if len(popYears) > 0 {
		extrapolated, err := e.extrapolate(ctx, extrapolation{
			metric:            metric,
			method:            method,
			target:            target,
			unit:              unit,
			metricYears:       metricYears,
			populationYears:   popYears,
			maxPopulationYear: maxPopulationYear,
			handled:           handled,
			metricCache:       metricCache,
			populationCache:   populationCache,
		}, result)
		if err != nil {
			return err
		}
		skipped = withoutYears(skipped, extrapolated)
	}

	for _, skip := range skipped {
		e.metrics.Skipped(target.Key, skip.Reason)
	}
	result.Skipped = append(result.Skipped, skipped...)
	return nil
}

func withoutYears(skipped []SkippedYear, years map[int]bool) []SkippedYear {
	if len(years) == 0 {
		return skipped
	}
	out := skipped[:0]
	for _, skip := range skipped {
		if !years[skip.Year] {
			out = append(out, skip)
		}
	}
	return out
}

// write upserts one aggregate row. A failure is recorded on result and
// reported as false so the caller moves on to the next year.
func (e *Engine) write(ctx context.Context, observation model.Observation, method, pass string, result *Result) bool {
	if err := e.store.UpsertObservation(ctx, observation); err != nil {
		result.Failures = append(result.Failures, WriteFailure{Year: observation.Year, Op: "upsert", Err: err})
		e.metrics.Failed(observation.Country, "upsert")
		e.logger.Error("failed to store aggregate",
			zap.String("metric", observation.MetricName),
			zap.String("target", observation.Country),
			zap.Int("year", observation.Year),
			zap.Error(err),
		)
		return false
	}
	e.metrics.Published(observation.Country, method, pass)
	if result.Latest == nil || observation.Year > result.Latest.Year {
		stored := observation
		result.Latest = &stored
	}
	return true
}

// prune deletes aggregate rows of target for years this run did not produce,
// so a rerun fully replaces the previous series. Years whose write failed
// keep their old row.
func (e *Engine) prune(ctx context.Context, metric string, target Target, result *Result) {
	keep := make(map[int]bool)
	for _, year := range result.Published {
		keep[year] = true
	}
	for _, year := range result.Extrapolated {
		keep[year] = true
	}
	for _, failure := range result.Failures {
		keep[failure.Year] = true
	}

	years, err := e.store.DistinctYears(ctx, metric, []string{target.Key})
	if err != nil {
		e.logger.Warn("failed to list stored aggregate years",
			zap.String("metric", metric),
			zap.String("target", target.Key),
			zap.Error(err),
		)
		return
	}
	for _, year := range years {
		if keep[year] {
			continue
		}
		if err := e.store.DeleteObservation(ctx, target.Key, metric, year); err != nil {
			result.Failures = append(result.Failures, WriteFailure{Year: year, Op: "delete", Err: err})
			e.metrics.Failed(target.Key, "delete")
			e.logger.Error("failed to delete stale aggregate",
				zap.String("metric", metric),
				zap.String("target", target.Key),
				zap.Int("year", year),
				zap.Error(err),
			)
			continue
		}
		result.Pruned = append(result.Pruned, year)
	}
}

// unit prefers the unit stored on individual countries, then the catalog.
func (e *Engine) unit(ctx context.Context, metric string) string {
	unit, err := e.store.SampleUnit(ctx, metric, e.aggregateKeys())
	if err != nil {
		e.logger.Warn("failed to sample unit", zap.String("metric", metric), zap.Error(err))
	}
	if unit != "" {
		return unit
	}
	return e.catalog.Unit(metric)
}

func (e *Engine) aggregateKeys() []string {
	keys := append([]string{}, model.AggregateKeys...)
	for _, group := range e.groups {
		if !model.IsAggregateKey(group.Key) {
			keys = append(keys, group.Key)
		}
	}
	return keys
}

// countriesWithData keeps the candidates that have any observation of
// metric, in candidate order and without duplicates.
func (e *Engine) countriesWithData(ctx context.Context, metric string, candidates []string) ([]string, error) {
	available, err := e.store.DistinctCountries(ctx, metric)
	if err != nil {
		return nil, fmt.Errorf("list countries for %s: %w", metric, err)
	}
	have := make(map[string]bool, len(available))
	for _, country := range available {
		have[country] = true
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, country := range candidates {
		if !have[country] || seen[country] {
			continue
		}
		seen[country] = true
		out = append(out, country)
	}
	return out, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

func sortedYears(years map[int]bool) []int {
	out := make([]int, 0, len(years))
	for year := range years {
		out = append(out, year)
	}
	sort.Ints(out)
	return out
}
