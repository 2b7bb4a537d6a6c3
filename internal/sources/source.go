package sources

import (
	"context"

	"eurometrics/internal/model"
)

// Source yields country observations for the collector.
type Source interface {
	Name() string
	Observations(ctx context.Context) ([]model.Observation, error)
}
