// Package chart assembles display payloads that merge raw country series
// with stored aggregate series and their coverage.
package chart

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/catalog"
	"eurometrics/internal/countries"
	"eurometrics/internal/model"
	"eurometrics/internal/store"
)

const (
	DefaultStartYear = 2000
	DefaultEndYear   = 2024
)

// Calculator computes a group aggregate on demand.
type Calculator interface {
	CalculateGroupAggregate(ctx context.Context, metric string, group model.CountryGroup, opts aggregate.Options) (aggregate.Result, error)
}

type Options struct {
	StartYear int
	EndYear   int
	// Countries limits the payload. Empty means every country with data
	// plus "europe".
	Countries []string
}

type Series struct {
	Name        string          `json:"name"`
	Data        map[int]float64 `json:"data"`
	Coverage    map[int]float64 `json:"coverage,omitempty"`
	IsAggregate bool            `json:"isAggregate,omitempty"`
}

type Payload struct {
	Metadata  catalog.Metadata  `json:"metadata"`
	Years     []int             `json:"years"`
	Countries map[string]Series `json:"countries"`
}

// LatestValue is the most recent stored value of one country.
type LatestValue struct {
	Value float64 `json:"value"`
	Year  int     `json:"year"`
}

type Assembler struct {
	store   store.Reader
	catalog *catalog.Catalog
	names   *countries.Table
	calc    Calculator
	groups  []model.CountryGroup
	logger  *zap.Logger
}

// NewAssembler builds an Assembler. calc may be nil, in which case missing
// EU-27 values are not computed on the fly.
func NewAssembler(r store.Reader, c *catalog.Catalog, names *countries.Table, calc Calculator, groups []model.CountryGroup, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if groups == nil {
		groups = countries.DefaultGroups()
	}
	if names == nil {
		names = countries.Default()
	}
	return &Assembler{store: r, catalog: c, names: names, calc: calc, groups: groups, logger: logger}
}

func (a *Assembler) isAggregate(country string) bool {
	if model.IsAggregateKey(country) {
		return true
	}
	_, ok := countries.FindGroup(a.groups, country)
	return ok
}

// Build returns the chart payload of metric. Countries without any stored
// data are omitted; stored series with no year in range come back empty. A
// "europe" series that was never stored falls back to an unweighted mean of
// the major EU economies, which is never persisted.
func (a *Assembler) Build(ctx context.Context, metric string, opts Options) (Payload, error) {
	if opts.StartYear == 0 {
		opts.StartYear = DefaultStartYear
	}
	if opts.EndYear == 0 {
		opts.EndYear = DefaultEndYear
	}

	available, err := a.store.DistinctCountries(ctx, metric)
	if err != nil {
		return Payload{}, fmt.Errorf("list countries: %w", err)
	}
	stored := make(map[string]bool, len(available))
	for _, country := range available {
		stored[country] = true
	}
	requested := opts.Countries
	if len(requested) == 0 {
		requested = append(append([]string{}, available...), model.KeyEurope)
	}

	observations, err := a.store.ListObservations(ctx, metric, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("list observations: %w", err)
	}
	byCountry := make(map[string][]model.Observation)
	yearSet := make(map[int]bool)
	var sample *model.Observation
	for i, observation := range observations {
		if observation.Year < opts.StartYear || observation.Year > opts.EndYear {
			continue
		}
		byCountry[observation.Country] = append(byCountry[observation.Country], observation)
		yearSet[observation.Year] = true
		if sample == nil && !a.isAggregate(observation.Country) {
			sample = &observations[i]
		}
	}

	payload := Payload{
		Metadata:  a.catalog.Metadata(metric, sample),
		Years:     sortedYears(yearSet),
		Countries: make(map[string]Series, len(requested)),
	}

	for _, country := range requested {
		if _, done := payload.Countries[country]; done {
			continue
		}
		if !stored[country] {
			if country == model.KeyEurope {
				if series, ok := a.europeFallback(byCountry, payload.Years); ok {
					payload.Countries[country] = series
				}
			}
			continue
		}

		rows := byCountry[country]
		series := Series{Name: a.names.Name(country), Data: make(map[int]float64, len(rows))}
		aggregateKey := a.isAggregate(country)
		if aggregateKey {
			series.IsAggregate = true
			series.Coverage = make(map[int]float64)
		}
		for _, row := range rows {
			series.Data[row.Year] = row.Value
			if aggregateKey && row.Coverage != nil {
				series.Coverage[row.Year] = *row.Coverage
			}
		}
		if len(series.Coverage) == 0 {
			series.Coverage = nil
		}
		payload.Countries[country] = series
	}
	return payload, nil
}

func (a *Assembler) europeFallback(byCountry map[string][]model.Observation, years []int) (Series, bool) {
	values := make(map[int][]float64)
	found := false
	for _, country := range countries.MajorEU {
		rows, ok := byCountry[country]
		if !ok {
			continue
		}
		found = true
		for _, row := range rows {
			values[row.Year] = append(values[row.Year], row.Value)
		}
	}
	if !found {
		return Series{}, false
	}

	data := make(map[int]float64, len(years))
	for _, year := range years {
		points := values[year]
		if len(points) == 0 {
			continue
		}
		sum := 0.0
		for _, point := range points {
			sum += point
		}
		data[year] = sum / float64(len(points))
	}
	a.logger.Debug("using unweighted europe fallback", zap.Int("years", len(data)))
	return Series{Name: a.names.Name(model.KeyEurope), Data: data, IsAggregate: true}, true
}

// Latest returns the most recent value per country at or before asOf; asOf
// <= 0 means no bound. A missing EU-27 value is computed and stored first
// when a Calculator is configured.
func (a *Assembler) Latest(ctx context.Context, metric string, keys []string, asOf int) (map[string]LatestValue, error) {
	if asOf <= 0 {
		asOf = math.MaxInt32
	}
	if len(keys) == 0 {
		keys = append(a.names.Countries(), model.KeyEurope, "usa", "china", "india")
	}

	out := make(map[string]LatestValue, len(keys))
	for _, country := range keys {
		latest, ok, err := a.latest(ctx, metric, country, asOf)
		if err != nil {
			return nil, err
		}
		if !ok && country == model.KeyEuropeanUnion && a.calc != nil {
			latest, ok = a.computeEU(ctx, metric, asOf)
		}
		if ok {
			out[country] = latest
		}
	}
	return out, nil
}

func (a *Assembler) computeEU(ctx context.Context, metric string, asOf int) (LatestValue, bool) {
	group, found := countries.FindGroup(a.groups, model.KeyEuropeanUnion)
	if !found {
		group = model.CountryGroup{Key: model.KeyEuropeanUnion, Name: "EU-27", Members: countries.EU27}
	}
	if _, err := a.calc.CalculateGroupAggregate(ctx, metric, group, aggregate.Options{}); err != nil {
		a.logger.Warn("failed to calculate EU-27 on the fly", zap.String("metric", metric), zap.Error(err))
		return LatestValue{}, false
	}
	latest, ok, err := a.latest(ctx, metric, model.KeyEuropeanUnion, asOf)
	if err != nil {
		a.logger.Warn("failed to read EU-27 after calculation", zap.String("metric", metric), zap.Error(err))
		return LatestValue{}, false
	}
	return latest, ok
}

func (a *Assembler) latest(ctx context.Context, metric, country string, asOf int) (LatestValue, bool, error) {
	resolved, ok, err := aggregate.ResolveFromStore(ctx, a.store, metric, country, asOf)
	if err != nil {
		return LatestValue{}, false, fmt.Errorf("latest %s for %s: %w", metric, country, err)
	}
	if !ok {
		return LatestValue{}, false, nil
	}
	return LatestValue{Value: resolved.Value, Year: resolved.Year}, true, nil
}

func sortedYears(set map[int]bool) []int {
	years := make([]int, 0, len(set))
	for year := range set {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}
