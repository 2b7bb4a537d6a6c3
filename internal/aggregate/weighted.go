package aggregate

import "eurometrics/internal/countries"

// yearInput is everything needed to aggregate one year of one metric over
// one country set. PopulationYear is the year population is resolved at.
type yearInput struct {
	Year           int
	Countries      []string
	Metric         SeriesCache
	Population     SeriesCache
	PopulationYear int
	Weights        countries.Weights
}

// YearResult is the ephemeral outcome of aggregating one year.
type YearResult struct {
	Year     int
	Value    float64
	HasValue bool

	// Population-weighted coverage: share of the set's European population
	// with an exact-year value (Actual) or any value (Effective).
	ActualCoverage    float64
	EffectiveCoverage float64

	GroupPopulation        float64
	WeightedPopulation     float64
	CurrentCountries       int
	ForwardFilledCountries int
}

func (r YearResult) Contributors() int {
	return r.CurrentCountries + r.ForwardFilledCountries
}

func (in yearInput) european(country string, population float64) float64 {
	weights := in.Weights
	if weights == nil {
		weights = (*countries.Table)(nil)
	}
	return weights.EuropeanPopulation(country, population)
}

// computeCoverage returns (actual, effective) shares of total; both are 0
// when total is 0.
func computeCoverage(withCurrent, withAny, total float64) (float64, float64) {
	if total <= 0 {
		return 0, 0
	}
	return withCurrent / total, withAny / total
}

// groupPopulation sums the European population of every country that has a
// population record at or before the input's population year.
func groupPopulation(in yearInput) float64 {
	total := 0.0
	for _, country := range in.Countries {
		population, ok := in.Population.Resolve(country, in.PopulationYear)
		if !ok {
			continue
		}
		total += in.european(country, population.Value)
	}
	return total
}

// aggregateYear computes the population-weighted mean of the metric for one
// year using forward-filled metric values and populations.
func aggregateYear(in yearInput) YearResult {
	result := YearResult{Year: in.Year, GroupPopulation: groupPopulation(in)}

	var totalWeighted, withCurrent, withAny float64
	for _, country := range in.Countries {
		value, ok := in.Metric.Resolve(country, in.Year)
		if !ok {
			continue
		}
		population, ok := in.Population.Resolve(country, in.PopulationYear)
		if !ok {
			continue
		}

		contribution := in.european(country, population.Value)
		totalWeighted += value.Value * contribution
		result.WeightedPopulation += contribution
		withAny += contribution
		if value.ForwardFilled {
			result.ForwardFilledCountries++
			continue
		}
		result.CurrentCountries++
		withCurrent += contribution
	}

	result.ActualCoverage, result.EffectiveCoverage = computeCoverage(withCurrent, withAny, result.GroupPopulation)
	if result.WeightedPopulation > 0 {
		result.Value = totalWeighted / result.WeightedPopulation
		result.HasValue = true
	}
	return result
}

// extrapolateYear aggregates a year that has no population data, using exact
// metric values only and populations at in.PopulationYear. Coverage is the
// population share of contributors; the caller gates on country count.
func extrapolateYear(in yearInput) YearResult {
	result := YearResult{Year: in.Year, GroupPopulation: groupPopulation(in)}

	var totalWeighted float64
	for _, country := range in.Countries {
		value, ok := in.Metric.Exact(country, in.Year)
		if !ok {
			continue
		}
		population, ok := in.Population.Resolve(country, in.PopulationYear)
		if !ok {
			continue
		}
		contribution := in.european(country, population.Value)
		totalWeighted += value * contribution
		result.WeightedPopulation += contribution
		result.CurrentCountries++
	}

	result.ActualCoverage, result.EffectiveCoverage = computeCoverage(
		result.WeightedPopulation, result.WeightedPopulation, result.GroupPopulation)
	if result.WeightedPopulation > 0 {
		result.Value = totalWeighted / result.WeightedPopulation
		result.HasValue = true
	}
	return result
}

// sumYear adds up exact-year values scaled by each country's population
// factor. Forward-filled values never count.
func sumYear(in yearInput) YearResult {
	result := YearResult{Year: in.Year, GroupPopulation: groupPopulation(in)}

	var withCurrent float64
	for _, country := range in.Countries {
		value, ok := in.Metric.Exact(country, in.Year)
		if !ok {
			continue
		}
		result.Value += in.european(country, value)
		result.CurrentCountries++

		if population, ok := in.Population.Resolve(country, in.PopulationYear); ok {
			withCurrent += in.european(country, population.Value)
		}
	}

	result.WeightedPopulation = withCurrent
	result.ActualCoverage, result.EffectiveCoverage = computeCoverage(withCurrent, withCurrent, result.GroupPopulation)
	result.HasValue = result.CurrentCountries > 0
	return result
}
