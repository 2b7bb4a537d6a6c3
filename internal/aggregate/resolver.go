package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"eurometrics/internal/model"
	"eurometrics/internal/store"
)

// Resolved is the value a country contributes for a year.
type Resolved struct {
	Value         float64
	Year          int
	ForwardFilled bool
}

// Series is one country's year-sorted observations for one metric.
type Series struct {
	years  []int
	values []float64
}

func NewSeries(points []model.YearValue) *Series {
	sorted := make([]model.YearValue, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	s := &Series{
		years:  make([]int, 0, len(sorted)),
		values: make([]float64, 0, len(sorted)),
	}
	for _, point := range sorted {
		// last write wins for duplicated years
		if n := len(s.years); n > 0 && s.years[n-1] == point.Year {
			s.values[n-1] = point.Value
			continue
		}
		s.years = append(s.years, point.Year)
		s.values = append(s.values, point.Value)
	}
	return s
}

// Resolve returns the exact observation for year, or the most recent one
// strictly before it marked as forward filled.
func (s *Series) Resolve(year int) (Resolved, bool) {
	if s == nil || len(s.years) == 0 {
		return Resolved{}, false
	}
	// first index with years[i] > year
	i := sort.SearchInts(s.years, year+1)
	if i == 0 {
		return Resolved{}, false
	}
	found := s.years[i-1]
	return Resolved{Value: s.values[i-1], Year: found, ForwardFilled: found != year}, true
}

// Exact returns the observation for year without forward fill.
func (s *Series) Exact(year int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	i := sort.SearchInts(s.years, year)
	if i < len(s.years) && s.years[i] == year {
		return s.values[i], true
	}
	return 0, false
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.years)
}

// SeriesCache maps a country to its Series for a single metric.
type SeriesCache map[string]*Series

// BuildCache groups observations by country. Countries without observations
// are absent from the cache.
func BuildCache(observations []model.Observation) SeriesCache {
	points := make(map[string][]model.YearValue)
	for _, observation := range observations {
		points[observation.Country] = append(points[observation.Country], model.YearValue{
			Year:  observation.Year,
			Value: observation.Value,
		})
	}
	cache := make(SeriesCache, len(points))
	for country, series := range points {
		cache[country] = NewSeries(series)
	}
	return cache
}

// LoadCache pre-loads every observation of metric for countries in one read.
func LoadCache(ctx context.Context, r store.Reader, metric string, countries []string) (SeriesCache, error) {
	if len(countries) == 0 {
		return SeriesCache{}, nil
	}
	observations, err := r.ListObservations(ctx, metric, countries)
	if err != nil {
		return nil, fmt.Errorf("load %s cache: %w", metric, err)
	}
	return BuildCache(observations), nil
}

func (c SeriesCache) Resolve(country string, year int) (Resolved, bool) {
	return c[country].Resolve(year)
}

func (c SeriesCache) Exact(country string, year int) (float64, bool) {
	return c[country].Exact(year)
}

// Years returns the sorted union of years across the cache.
func (c SeriesCache) Years() []int {
	seen := make(map[int]struct{})
	for _, series := range c {
		for _, year := range series.years {
			seen[year] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// ResolveFromStore is the uncached form of SeriesCache.Resolve.
func ResolveFromStore(ctx context.Context, r store.Reader, metric, country string, year int) (Resolved, bool, error) {
	observation, err := r.GetObservation(ctx, metric, country, year)
	if err == nil {
		return Resolved{Value: observation.Value, Year: year}, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Resolved{}, false, err
	}

	earlier, err := r.ListObservationsBefore(ctx, metric, country, year)
	if err != nil {
		return Resolved{}, false, err
	}
	if len(earlier) == 0 {
		return Resolved{}, false, nil
	}
	return Resolved{Value: earlier[0].Value, Year: earlier[0].Year, ForwardFilled: true}, true, nil
}
