// Package model holds the persisted types shared by the pipeline and stores.
package model

import (
	"encoding/json"
	"time"

	"github.com/sells-group/keyword-cli/internal/repair"
)

// RunStatus is the outcome of one keyword pipeline run.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	// RunStatusCategorizationFailed means ideas were generated but the
	// model reply could not be turned into a record.
	RunStatusCategorizationFailed RunStatus = "categorization_failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCategorizationFailed:
		return true
	}
	return false
}

// Run is a persisted pipeline run.
type Run struct {
	ID         string         `json:"id"`
	SeedURL    string         `json:"seed_url"`
	Status     RunStatus      `json:"status"`
	GeoTargets []string       `json:"geo_targets"`
	IdeaCount  int            `json:"idea_count"`
	Record     *repair.Record `json:"record,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MarshalFields encodes the JSON columns of a run.
func (r *Run) MarshalFields() (geoTargets, record []byte, err error) {
	targets := r.GeoTargets
	if targets == nil {
		targets = []string{}
	}
	if geoTargets, err = json.Marshal(targets); err != nil {
		return nil, nil, err
	}
	if r.Record != nil {
		if record, err = json.Marshal(r.Record); err != nil {
			return nil, nil, err
		}
	}
	return geoTargets, record, nil
}

// UnmarshalFields decodes the JSON columns of a run. A nil record leaves
// Record unset.
func (r *Run) UnmarshalFields(geoTargets, record []byte) error {
	r.GeoTargets = nil
	if len(geoTargets) > 0 {
		if err := json.Unmarshal(geoTargets, &r.GeoTargets); err != nil {
			return err
		}
	}
	r.Record = nil
	if len(record) > 0 {
		var rec repair.Record
		if err := json.Unmarshal(record, &rec); err != nil {
			return err
		}
		r.Record = &rec
	}
	return nil
}
