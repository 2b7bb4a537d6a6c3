// Package memory is an in-process implementation of store.Store used by
// tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"eurometrics/internal/model"
	"eurometrics/internal/store"
)

type key struct {
	country string
	metric  string
	year    int
}

type Store struct {
	mu   sync.RWMutex
	rows map[key]model.Observation
}

func New(observations ...model.Observation) *Store {
	s := &Store{rows: make(map[key]model.Observation, len(observations))}
	for _, observation := range observations {
		s.rows[keyOf(observation)] = observation
	}
	return s
}

func keyOf(observation model.Observation) key {
	return key{country: observation.Country, metric: observation.MetricName, year: observation.Year}
}

func (s *Store) GetObservation(ctx context.Context, metric, country string, year int) (model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	observation, ok := s.rows[key{country: country, metric: metric, year: year}]
	if !ok {
		return model.Observation{}, store.ErrNotFound
	}
	return copyObservation(observation), nil
}

func (s *Store) ListObservationsBefore(ctx context.Context, metric, country string, year int) ([]model.YearValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := make([]model.YearValue, 0)
	for k, observation := range s.rows {
		if k.metric == metric && k.country == country && k.year < year {
			points = append(points, model.YearValue{Year: k.year, Value: observation.Value})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year > points[j].Year })
	return points, nil
}

func (s *Store) ListObservations(ctx context.Context, metric string, countries []string) ([]model.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter := toSet(countries)
	results := make([]model.Observation, 0)
	for k, observation := range s.rows {
		if k.metric != metric {
			continue
		}
		if filter != nil {
			if _, ok := filter[k.country]; !ok {
				continue
			}
		}
		results = append(results, copyObservation(observation))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Country != results[j].Country {
			return results[i].Country < results[j].Country
		}
		return results[i].Year < results[j].Year
	})
	return results, nil
}

func (s *Store) DistinctYears(ctx context.Context, metric string, countries []string) ([]int, error) {
	observations, err := s.ListObservations(ctx, metric, countries)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, observation := range observations {
		if _, ok := seen[observation.Year]; ok {
			continue
		}
		seen[observation.Year] = struct{}{}
		years = append(years, observation.Year)
	}
	sort.Ints(years)
	return years, nil
}

func (s *Store) DistinctCountries(ctx context.Context, metric string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range s.rows {
		if k.metric == metric {
			seen[k.country] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) ListMetrics(ctx context.Context, country string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range s.rows {
		if country == "" || k.country == country {
			seen[k.metric] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) SampleUnit(ctx context.Context, metric string, excludeCountries []string) (string, error) {
	observations, err := s.ListObservations(ctx, metric, nil)
	if err != nil {
		return "", err
	}
	excluded := toSet(excludeCountries)
	for _, observation := range observations {
		if _, skip := excluded[observation.Country]; skip {
			continue
		}
		if observation.Unit == "" || observation.Unit == "units" {
			continue
		}
		return observation.Unit, nil
	}
	return "", nil
}

func (s *Store) UpsertObservation(ctx context.Context, observation model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[keyOf(observation)] = copyObservation(observation)
	return nil
}

func (s *Store) UpsertObservations(ctx context.Context, observations []model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, observation := range observations {
		s.rows[keyOf(observation)] = copyObservation(observation)
	}
	return nil
}

func (s *Store) DeleteObservation(ctx context.Context, country, metric string, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key{country: country, metric: metric, year: year})
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func copyObservation(observation model.Observation) model.Observation {
	if observation.Coverage != nil {
		observation.Coverage = model.Float(*observation.Coverage)
	}
	return observation
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
