package aggregate

import (
	"context"

	"go.uber.org/zap"

	"eurometrics/internal/model"
)

type extrapolation struct {
	metric            string
	method            model.Method
	target            Target
	unit              string
	metricYears       []int
	populationYears   map[int]bool
	maxPopulationYear int
	handled           map[int]bool
	metricCache       SeriesCache
	populationCache   SeriesCache
}

// extrapolate fills metric years that have no population data and were not
// published by the main pass, weighting exact values with the latest
// population. It returns the years it wrote.
func (e *Engine) extrapolate(ctx context.Context, x extrapolation, result *Result) (map[int]bool, error) {
	written := make(map[int]bool)
	total := len(x.target.Countries)
	if total == 0 {
		return written, nil
	}

	for _, year := range x.metricYears {
		if x.populationYears[year] || x.handled[year] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}

		yr := extrapolateYear(yearInput{
			Year:           year,
			Countries:      x.target.Countries,
			Metric:         x.metricCache,
			Population:     x.populationCache,
			PopulationYear: x.maxPopulationYear,
			Weights:        e.weights,
		})
		countryCoverage := float64(yr.CurrentCountries) / float64(total)
		if countryCoverage < e.cfg.MinCoverage || !yr.HasValue {
			e.logger.Info("skipping extrapolated year",
				zap.String("metric", x.metric),
				zap.String("target", x.target.Key),
				zap.Int("year", year),
				zap.Int("contributors", yr.CurrentCountries),
				zap.Int("countries", total),
			)
			continue
		}

		observation := model.Observation{
			Country:     x.target.Key,
			MetricName:  x.metric,
			Year:        year,
			Value:       model.RoundValue(yr.Value),
			Unit:        x.unit,
			Source:      x.target.Source,
			Description: describeExtrapolated(x.metric, x.target, yr, x.maxPopulationYear),
			Coverage:    model.Float(model.RoundCoverage(yr.ActualCoverage)),
		}
		if !e.write(ctx, observation, string(x.method), "extrapolated", result) {
			continue
		}
		written[year] = true
	}

	result.Extrapolated = append(result.Extrapolated, sortedYears(written)...)
	return written, nil
}
