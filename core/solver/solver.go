// Package solver defines the boundary with external optimization solvers:
// the Solver a model is handed to, the Progress capabilities exposed to
// callbacks during the search, and the Result read back afterwards.
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/unitcommit/core/factory"
	"github.com/kilianp07/unitcommit/core/mip"
)

// ErrNoProgress is returned by Progress getters when the solver has not
// reported the requested value yet.
var ErrNoProgress = errors.New("progress value not available")

// Progress is what a callback may query and request while the solver
// searches. Implementations are only called from the solver's callback
// goroutine.
type Progress interface {
	// SolutionCount returns the number of feasible integer solutions found.
	SolutionCount() (int, error)
	// Runtime returns the elapsed time since the solve started.
	Runtime() (time.Duration, error)
	// Gap returns the relative optimality gap of the best solution.
	Gap() (float64, error)
	// Terminated reports whether a stop has already been requested.
	Terminated() bool
	// Terminate asks the solver to stop the search as soon as possible.
	Terminate()
}

// Callback is invoked by the solver at points of its choosing during the
// search, strictly one call at a time.
type Callback func(Progress)

// Status is the outcome of a solve.
type Status int

const (
	StatusUnknown Status = iota
	// StatusOptimal means the solution is proven optimal within tolerance.
	StatusOptimal
	// StatusFeasible means the search ended early (terminate request or
	// limit) with a feasible solution that is not proven optimal.
	StatusFeasible
	// StatusNoSolution means the search ended early without any solution.
	StatusNoSolution
	StatusInfeasible
	StatusUnbounded
	StatusInfeasibleOrUnbounded
)

var statusNames = map[Status]string{
	StatusUnknown:               "unknown",
	StatusOptimal:               "optimal",
	StatusFeasible:              "feasible",
	StatusNoSolution:            "no_solution",
	StatusInfeasible:            "infeasible",
	StatusUnbounded:             "unbounded",
	StatusInfeasibleOrUnbounded: "infeasible_or_unbounded",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution reports whether Values holds a feasible assignment.
func (s Status) HasSolution() bool { return s == StatusOptimal || s == StatusFeasible }

// Result is what the solver reports once the search is over.
type Result struct {
	Status    Status
	Objective float64
	Bound     float64
	Gap       float64
	// Values is indexed by mip.Var; empty unless Status.HasSolution().
	Values  []float64
	Runtime time.Duration
	// Interrupted is true when the search ended because of a terminate request.
	Interrupted bool
}

// Solver runs the search on a model. Solve blocks until the search is over;
// cb may be nil. Infeasibility is a Status, not an error: errors are kept for
// failures of the solver itself.
type Solver interface {
	Solve(ctx context.Context, m *mip.Model, cb Callback) (Result, error)
}

var registry = factory.NewRegistry[Solver]()

// Register adds a solver backend identified by name.
func Register(name string, f factory.Factory[Solver]) error {
	return registry.Register(name, f)
}

// New creates the solver backend described by cfg.
func New(cfg factory.ModuleConfig) (Solver, error) {
	return registry.Create(cfg)
}

// Backends lists the registered backend names.
func Backends() []string { return registry.Names() }
