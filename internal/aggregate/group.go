package aggregate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"eurometrics/internal/model"
)

// ErrEmptyGroup is returned when a skippable group has no member with data.
var ErrEmptyGroup = errors.New("no group member has data")

// CalculateGroupAggregate writes the series of one country group. An
// unsupported method falls back to population_weighted once.
func (e *Engine) CalculateGroupAggregate(ctx context.Context, metric string, group model.CountryGroup, opts Options) (Result, error) {
	members := dedupe(group.Members)
	if group.SkipWhenEmpty {
		var err error
		members, err = e.countriesWithData(ctx, metric, members)
		if err != nil {
			return Result{Metric: metric, Target: group.Key}, err
		}
		if len(members) == 0 {
			return Result{Metric: metric, Target: group.Key}, ErrEmptyGroup
		}
	}

	label := group.Name
	if label == "" {
		label = e.weights.Name(group.Key)
	}
	target := Target{
		Key:             group.Key,
		Label:           label,
		Countries:       members,
		MinContributors: e.minContributors(metric, opts, &group),
		Source:          groupSource,
		group:           true,
	}

	method := e.method(metric, opts)
	result, err := e.calculate(ctx, metric, method, target)
	if errors.Is(err, ErrUnsupportedAggregationMethod) {
		e.logger.Warn("unsupported aggregation method, falling back",
			zap.String("metric", metric),
			zap.String("target", group.Key),
			zap.String("method", string(method)),
			zap.String("fallback", string(model.MethodPopulationWeighted)),
		)
		return e.calculate(ctx, metric, model.MethodPopulationWeighted, target)
	}
	return result, err
}

// CalculateAllRegionalAggregates runs every configured group for metric. A
// failing group does not stop the others; errors are joined.
func (e *Engine) CalculateAllRegionalAggregates(ctx context.Context, metric string, opts Options) (map[string]Result, error) {
	results := make(map[string]Result, len(e.groups))
	var errs []error
	for _, group := range e.groups {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := e.CalculateGroupAggregate(ctx, metric, group, opts)
		if errors.Is(err, ErrEmptyGroup) {
			e.logger.Info("skipping group without data",
				zap.String("metric", metric),
				zap.String("target", group.Key),
			)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", group.Key, err))
			continue
		}
		results[group.Key] = result
	}
	return results, errors.Join(errs...)
}

// CalculateAllRegionalAggregatesForAllMetrics runs the groups for every metric
// that already has a Europe aggregate.
func (e *Engine) CalculateAllRegionalAggregatesForAllMetrics(ctx context.Context, opts Options) (map[string]map[string]Result, error) {
	metricNames, err := e.store.ListMetrics(ctx, model.KeyEurope)
	if err != nil {
		return nil, fmt.Errorf("list europe metrics: %w", err)
	}
	all := make(map[string]map[string]Result, len(metricNames))
	var errs []error
	for _, metric := range metricNames {
		results, err := e.CalculateAllRegionalAggregates(ctx, metric, opts)
		all[metric] = results
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", metric, err))
		}
	}
	return all, errors.Join(errs...)
}
