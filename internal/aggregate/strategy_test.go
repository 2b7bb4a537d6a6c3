package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/model"
)

func TestSelectMethod_Mapping(t *testing.T) {
	t.Parallel()

	cases := map[string]model.Method{
		"population":         model.MethodSimpleSum,
		"gdp_per_capita_ppp": model.MethodPopulationWeighted,
		"life_expectancy":    model.MethodPopulationWeighted,
		"education_index":    model.MethodPopulationWeighted,
		"happiness_score":    model.MethodPopulationWeighted,
		"birth_rate":         model.MethodPopulationWeightedRate,
		"death_rate":         model.MethodPopulationWeightedRate,
		"literacy_rate":      model.MethodPopulationWeightedRate,
		"co2_per_capita":     model.MethodPopulationWeighted,
	}
	for metric, want := range cases {
		assert.Equal(t, want, aggregate.SelectMethod(metric, ""), metric)
	}
}

func TestSelectMethod_OverrideReturnedUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.MethodSimpleSum, aggregate.SelectMethod("life_expectancy", model.MethodSimpleSum))
	assert.Equal(t, model.Method("median"), aggregate.SelectMethod("population", "median"))
}
