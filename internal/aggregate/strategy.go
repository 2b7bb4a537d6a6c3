package aggregate

import (
	"errors"

	"eurometrics/internal/model"
)

var ErrUnsupportedAggregationMethod = errors.New("unsupported aggregation method")

// SelectMethod picks the aggregation strategy for a metric. A non-empty
// override is returned as is; it is validated only when executed.
func SelectMethod(metric string, override model.Method) model.Method {
	if override != "" {
		return override
	}
	switch metric {
	case model.PopulationMetric:
		return model.MethodSimpleSum
	case "gdp_per_capita_ppp", "life_expectancy", "education_index", "happiness_score":
		return model.MethodPopulationWeighted
	case "birth_rate", "death_rate", "literacy_rate":
		return model.MethodPopulationWeightedRate
	default:
		return model.MethodPopulationWeighted
	}
}

func isWeighted(method model.Method) bool {
	return method == model.MethodPopulationWeighted || method == model.MethodPopulationWeightedRate
}
