package countries

import "eurometrics/internal/model"

// European population share of transcontinental countries: russia ~77%,
// turkey ~14% (Thrace), azerbaijan ~30% (north of the Greater Caucasus).
var defaultWeights = []model.CountryWeight{
	{Country: "germany", PopulationFactor: 1.0, Region: "Western Europe", Name: "Germany"},
	{Country: "france", PopulationFactor: 1.0, Region: "Western Europe", Name: "France"},
	{Country: "italy", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Italy"},
	{Country: "spain", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Spain"},
	{Country: "netherlands", PopulationFactor: 1.0, Region: "Western Europe", Name: "Netherlands"},
	{Country: "poland", PopulationFactor: 1.0, Region: "Central Europe", Name: "Poland"},
	{Country: "sweden", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Sweden"},
	{Country: "denmark", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Denmark"},
	{Country: "finland", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Finland"},
	{Country: "austria", PopulationFactor: 1.0, Region: "Central Europe", Name: "Austria"},
	{Country: "belgium", PopulationFactor: 1.0, Region: "Western Europe", Name: "Belgium"},
	{Country: "ireland", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Ireland"},
	{Country: "portugal", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Portugal"},
	{Country: "greece", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Greece"},
	{Country: "czechia", PopulationFactor: 1.0, Region: "Central Europe", Name: "Czechia"},
	{Country: "hungary", PopulationFactor: 1.0, Region: "Central Europe", Name: "Hungary"},
	{Country: "romania", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Romania"},
	{Country: "croatia", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Croatia"},
	{Country: "bulgaria", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Bulgaria"},
	{Country: "slovakia", PopulationFactor: 1.0, Region: "Central Europe", Name: "Slovakia"},
	{Country: "slovenia", PopulationFactor: 1.0, Region: "Central Europe", Name: "Slovenia"},
	{Country: "estonia", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Estonia"},
	{Country: "latvia", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Latvia"},
	{Country: "lithuania", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Lithuania"},
	{Country: "luxembourg", PopulationFactor: 1.0, Region: "Western Europe", Name: "Luxembourg"},
	{Country: "malta", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Malta"},
	{Country: "cyprus", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Cyprus"},
	{Country: "switzerland", PopulationFactor: 1.0, Region: "Western Europe", Name: "Switzerland"},
	{Country: "norway", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Norway"},
	{Country: "united_kingdom", PopulationFactor: 1.0, Region: "Northern Europe", Name: "United Kingdom"},
	{Country: "iceland", PopulationFactor: 1.0, Region: "Northern Europe", Name: "Iceland"},
	{Country: "ukraine", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Ukraine"},
	{Country: "belarus", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Belarus"},
	{Country: "moldova", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Moldova"},
	{Country: "albania", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Albania"},
	{Country: "bosnia_herzegovina", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Bosnia & Herzegovina"},
	{Country: "serbia", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Serbia"},
	{Country: "montenegro", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Montenegro"},
	{Country: "north_macedonia", PopulationFactor: 1.0, Region: "Southern Europe", Name: "North Macedonia"},
	{Country: "kosovo", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Kosovo"},
	{Country: "armenia", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Armenia"},
	{Country: "azerbaijan", PopulationFactor: 0.3, Region: "Eastern Europe", Name: "Azerbaijan"},
	{Country: "georgia", PopulationFactor: 1.0, Region: "Eastern Europe", Name: "Georgia"},
	{Country: "russia", PopulationFactor: 0.77, Region: "Eastern Europe", Name: "Russia"},
	{Country: "turkey", PopulationFactor: 0.14, Region: "Southern Europe", Name: "Turkey"},
	{Country: "andorra", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Andorra"},
	{Country: "monaco", PopulationFactor: 1.0, Region: "Western Europe", Name: "Monaco"},
	{Country: "san_marino", PopulationFactor: 1.0, Region: "Southern Europe", Name: "San Marino"},
	{Country: "vatican", PopulationFactor: 1.0, Region: "Southern Europe", Name: "Vatican"},
	{Country: "liechtenstein", PopulationFactor: 1.0, Region: "Western Europe", Name: "Liechtenstein"},
}
