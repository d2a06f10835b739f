// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"marketsynth/internal/models"
)

// Store is the serialize/deserialize boundary the core emits data
// through. Implementations wrap every failure as a StorageError; the
// core never attempts to recover from one.
type Store interface {
	Save(ctx context.Context, path string, v interface{}) error
	Load(ctx context.Context, path string, v interface{}) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, dir, pattern string) ([]string, error)
	Delete(ctx context.Context, path string) error
}

// RunStore persists simulation results keyed by run ID.
type RunStore interface {
	SaveBars(ctx context.Context, runID string, bars []models.Bar) error
	GetBars(ctx context.Context, runID string) ([]models.Bar, error)
	SaveChain(ctx context.Context, runID string, chain *models.OptionChain) error
	GetChain(ctx context.Context, runID string) (*models.OptionChain, error)
	ListRuns(ctx context.Context) ([]string, error)
	Close() error
}
