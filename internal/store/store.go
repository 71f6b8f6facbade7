// Package store persists run history and the geo-target cache.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/keyword-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	SeedURL string          `json:"seed_url,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for keyword runs.
type Store interface {
	// SaveRun inserts a run, filling ID and CreatedAt when they are empty.
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// LoadGeoTargets returns every cached name → resource name entry.
	LoadGeoTargets(ctx context.Context) (map[string]string, error)
	// SaveGeoTargets inserts entries whose names are not yet stored.
	// Existing names keep their value.
	SaveGeoTargets(ctx context.Context, entries map[string]string) error
	// ClearGeoTargets deletes every cached entry and returns how many.
	ClearGeoTargets(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

func prepareRun(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}
