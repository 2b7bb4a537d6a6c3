package aggregate

import (
	"context"

	"go.uber.org/zap"

	"eurometrics/internal/model"
)

func (e *Engine) runSum(ctx context.Context, metric string, target Target, result *Result) error {
	metricCache, err := LoadCache(ctx, e.store, metric, target.Countries)
	if err != nil {
		return err
	}
	populationCache := metricCache
	if metric != model.PopulationMetric {
		populationCache, err = LoadCache(ctx, e.store, model.PopulationMetric, target.Countries)
		if err != nil {
			return err
		}
	}
	popYears, maxPopulationYear, _ := populationYears(populationCache)
	unit := e.unit(ctx, metric)

	for _, year := range metricCache.Years() {
		if err := ctx.Err(); err != nil {
			return err
		}
		populationYear := year
		if !popYears[year] {
			populationYear = maxPopulationYear
		}
		yr := sumYear(yearInput{
			Year:           year,
			Countries:      target.Countries,
			Metric:         metricCache,
			Population:     populationCache,
			PopulationYear: populationYear,
			Weights:        e.weights,
		})
		if yr.CurrentCountries < target.MinContributors {
			result.Skipped = append(result.Skipped, SkippedYear{Year: year, Reason: "too few contributors"})
			e.metrics.Skipped(target.Key, "too few contributors")
			e.logger.Info("skipping year",
				zap.String("metric", metric),
				zap.String("target", target.Key),
				zap.Int("year", year),
				zap.Int("contributors", yr.CurrentCountries),
				zap.Int("min_contributors", target.MinContributors),
			)
			continue
		}

		var coverage *float64
		if yr.GroupPopulation > 0 {
			coverage = model.Float(model.RoundCoverage(yr.ActualCoverage))
		}
		observation := model.Observation{
			Country:     target.Key,
			MetricName:  metric,
			Year:        year,
			Value:       model.RoundValue(yr.Value),
			Unit:        unit,
			Source:      target.Source,
			Description: describeSum(metric, target, yr),
			Coverage:    coverage,
		}
		if e.write(ctx, observation, string(model.MethodSimpleSum), "main", result) {
			result.Published = append(result.Published, year)
		}
	}
	return nil
}
