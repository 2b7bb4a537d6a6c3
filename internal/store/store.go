package store

import (
	"context"
	"errors"

	"eurometrics/internal/model"
)

var ErrNotFound = errors.New("store: observation not found")

// Reader is the read side of the metric store. A nil or empty countries
// slice means "all countries".
type Reader interface {
	GetObservation(ctx context.Context, metric, country string, year int) (model.Observation, error)
	ListObservationsBefore(ctx context.Context, metric, country string, year int) ([]model.YearValue, error)
	ListObservations(ctx context.Context, metric string, countries []string) ([]model.Observation, error)
	DistinctYears(ctx context.Context, metric string, countries []string) ([]int, error)
	DistinctCountries(ctx context.Context, metric string) ([]string, error)
	ListMetrics(ctx context.Context, country string) ([]string, error)
	SampleUnit(ctx context.Context, metric string, excludeCountries []string) (string, error)
}

// Writer is the write side. UpsertObservation replaces every column of an
// existing (country, metric, year) row atomically.
type Writer interface {
	UpsertObservation(ctx context.Context, observation model.Observation) error
	UpsertObservations(ctx context.Context, observations []model.Observation) error
	DeleteObservation(ctx context.Context, country, metric string, year int) error
}

type Store interface {
	Reader
	Writer
	Close() error
}

type NopStore struct{}

func (s *NopStore) GetObservation(ctx context.Context, metric, country string, year int) (model.Observation, error) {
	return model.Observation{}, ErrNotFound
}

func (s *NopStore) ListObservationsBefore(ctx context.Context, metric, country string, year int) ([]model.YearValue, error) {
	return nil, nil
}

func (s *NopStore) ListObservations(ctx context.Context, metric string, countries []string) ([]model.Observation, error) {
	return nil, nil
}

func (s *NopStore) DistinctYears(ctx context.Context, metric string, countries []string) ([]int, error) {
	return nil, nil
}

func (s *NopStore) DistinctCountries(ctx context.Context, metric string) ([]string, error) {
	return nil, nil
}

func (s *NopStore) ListMetrics(ctx context.Context, country string) ([]string, error) {
	return nil, nil
}

func (s *NopStore) SampleUnit(ctx context.Context, metric string, excludeCountries []string) (string, error) {
	return "", nil
}

func (s *NopStore) UpsertObservation(ctx context.Context, observation model.Observation) error {
	return nil
}

func (s *NopStore) UpsertObservations(ctx context.Context, observations []model.Observation) error {
	return nil
}

func (s *NopStore) DeleteObservation(ctx context.Context, country, metric string, year int) error {
	return nil
}

func (s *NopStore) Close() error {
	return nil
}
