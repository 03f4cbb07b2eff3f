// Package runlog keeps a history of solve runs so schedules and solver
// behavior can be inspected after the fact.
package runlog

import (
	"context"
	"math"
	"time"

	"github.com/kilianp07/unitcommit/core/commitment"
)

// Record captures one solve run.
type Record struct {
	RunID        string    `json:"run_id"`
	Timestamp    time.Time `json:"timestamp"`
	Model        string    `json:"model"`
	Style        string    `json:"style"`
	Backend      string    `json:"backend"`
	Status       string    `json:"status"`
	EarlyStopped bool      `json:"early_stopped"`
	StopReason   string    `json:"stop_reason,omitempty"`
	// Objective and Gap are nil when the solver reported no solution.
	Objective   *float64             `json:"objective,omitempty"`
	Gap         *float64             `json:"gap,omitempty"`
	RuntimeSec  float64              `json:"runtime_s"`
	Variables   int                  `json:"variables"`
	Constraints int                  `json:"constraints"`
	Error       string               `json:"error,omitempty"`
	Schedule    *commitment.Schedule `json:"schedule,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start     time.Time
	End       time.Time
	Model     string
	Status    string
	EarlyOnly bool
	Limit     int
}

// Match reports whether r satisfies the filters other than Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Model != "" && r.Model != q.Model {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.EarlyOnly && !r.EarlyStopped {
		return false
	}
	return true
}

// Store persists Records and supports querying in timestamp order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Float returns a pointer to v, or nil when v is not a finite number.
func Float(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
