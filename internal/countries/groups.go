package countries

import "eurometrics/internal/model"

var (
	// MajorEU is the constituent list of the display-only Europe fallback.
	MajorEU = []string{
		"germany", "france", "italy", "spain", "netherlands", "poland", "sweden",
		"denmark", "finland", "austria", "belgium",
	}

	EU27 = []string{
		"germany", "france", "italy", "spain", "netherlands", "poland", "sweden",
		"denmark", "finland", "austria", "belgium", "ireland", "portugal", "greece",
		"czechia", "hungary", "romania", "croatia", "bulgaria", "slovakia",
		"slovenia", "estonia", "latvia", "lithuania", "luxembourg", "malta", "cyprus",
	}

	Eurozone = []string{
		"germany", "france", "italy", "spain", "netherlands", "belgium", "austria",
		"ireland", "portugal", "greece", "finland", "slovakia", "slovenia", "estonia",
		"latvia", "lithuania", "luxembourg", "malta", "cyprus", "croatia",
	}

	NonEuroEU = []string{
		"poland", "sweden", "denmark", "czechia", "hungary", "romania", "bulgaria",
	}

	NonEUEurope = []string{
		"united_kingdom", "switzerland", "norway", "iceland",
	}
)

// DefaultGroups returns the regional groups computed for every metric, in
// processing order.
func DefaultGroups() []model.CountryGroup {
	return []model.CountryGroup{
		{Key: model.KeyEuropeanUnion, Name: "EU-27", Members: clone(EU27)},
		{Key: model.KeyEurozone, Name: "Eurozone", Members: clone(Eurozone)},
		{Key: model.KeyNonEuroEU, Name: "Non-€ EU", Members: clone(NonEuroEU)},
		{Key: model.KeyNonEUEurope, Name: "Non-EU Europe", Members: clone(NonEUEurope), SkipWhenEmpty: true},
	}
}

// FindGroup returns the group registered under key.
func FindGroup(groups []model.CountryGroup, key string) (model.CountryGroup, bool) {
	for _, group := range groups {
		if group.Key == key {
			return group, true
		}
	}
	return model.CountryGroup{}, false
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
