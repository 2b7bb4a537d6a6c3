package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetricReport collects every result produced for one metric.
type MetricReport struct {
	Metric  string
	Results []Result
	Errors  []error
}

func (r MetricReport) Failed() bool {
	if len(r.Errors) > 0 {
		return true
	}
	for _, result := range r.Results {
		if len(result.Failures) > 0 {
			return true
		}
	}
	return false
}

// Report is the outcome of one Runner.Run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Metrics  []MetricReport
}

// Runner aggregates many metrics concurrently. Each metric runs Europe then
// every group sequentially; metrics never share aggregate rows.
type Runner struct {
	engine  *Engine
	workers int
	logger  *zap.Logger
}

func NewRunner(engine *Engine, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, workers: workers, logger: logger}
}

// Run processes metrics. An empty list means every metric with country data.
// Per-metric errors are kept in the report and never abort other metrics.
func (r *Runner) Run(ctx context.Context, metricNames []string, opts Options) (Report, error) {
	report := Report{RunID: uuid.NewString(), Started: time.Now()}
	logger := r.logger.With(zap.String("run_id", report.RunID))

	if len(metricNames) == 0 {
		discovered, err := r.discover(ctx)
		if err != nil {
			return report, err
		}
		metricNames = discovered
	}
	logger.Info("aggregation run started", zap.Int("metrics", len(metricNames)), zap.Int("workers", r.workers))

	report.Metrics = make([]MetricReport, len(metricNames))
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, metric := range metricNames {
		g.Go(func() error {
			report.Metrics[i] = r.runMetric(ctx, metric, opts)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = time.Now()
	logger.Info("aggregation run finished", zap.Duration("elapsed", report.Finished.Sub(report.Started)))
	return report, ctx.Err()
}

func (r *Runner) runMetric(ctx context.Context, metric string, opts Options) MetricReport {
	report := MetricReport{Metric: metric}
	if err := ctx.Err(); err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}

	europe, err := r.engine.CalculateEuropeAggregate(ctx, metric, opts)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("europe: %w", err))
	} else {
		report.Results = append(report.Results, europe)
	}

	for _, group := range r.engine.Groups() {
		result, err := r.engine.CalculateGroupAggregate(ctx, metric, group, opts)
		if errors.Is(err, ErrEmptyGroup) {
			continue
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", group.Key, err))
			continue
		}
		report.Results = append(report.Results, result)
	}

	for _, err := range report.Errors {
		r.logger.Error("metric aggregation failed", zap.String("metric", metric), zap.Error(err))
	}
	return report
}

// discover lists metrics observed for any European country.
func (r *Runner) discover(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, country := range r.engine.weights.Countries() {
		names, err := r.engine.store.ListMetrics(ctx, country)
		if err != nil {
			return nil, fmt.Errorf("discover metrics: %w", err)
		}
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
