package aggregate

import (
	"fmt"

	"eurometrics/internal/countries"
	"eurometrics/internal/model"
)

func describeWeighted(metric string, method model.Method, target Target, result YearResult, maxPopulationYear int) string {
	kind := "average"
	if method == model.MethodPopulationWeightedRate {
		kind = "rate"
	}
	popNote := ""
	if result.Year > maxPopulationYear {
		popNote = fmt.Sprintf(" (using %d population weights)", maxPopulationYear)
	}
	fillNote := ""
	if result.ForwardFilledCountries > 0 {
		fillNote = fmt.Sprintf("; %d countries using forward-filled data", result.ForwardFilledCountries)
	}
	return fmt.Sprintf(
		"Population-weighted %s %s of %s using %s population weights%s; adjusted for transcontinental populations; %d countries with current data%s.",
		target.Label, kind, countries.Humanize(metric), target.weightNoun(), popNote, result.CurrentCountries, fillNote,
	)
}

func describeExtrapolated(metric string, target Target, result YearResult, populationYear int) string {
	return fmt.Sprintf(
		"Population-weighted %s average of %s using %d population weights (extrapolated); adjusted for transcontinental populations; %d contributing countries.",
		target.Label, countries.Humanize(metric), populationYear, result.CurrentCountries,
	)
}

func describeSum(metric string, target Target, result YearResult) string {
	if metric == model.PopulationMetric {
		return fmt.Sprintf(
			"Total %s population (adjusted for transcontinental populations); %d countries with current data.",
			target.Label, result.CurrentCountries,
		)
	}
	return fmt.Sprintf(
		"Simple sum of %s across %s countries (adjusted for transcontinental populations); %d countries with current data.",
		countries.Humanize(metric), target.Label, result.CurrentCountries,
	)
}
