package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/unitcommit/core/commitment"
	"github.com/kilianp07/unitcommit/core/events"
	"github.com/kilianp07/unitcommit/core/logger"
	"github.com/kilianp07/unitcommit/core/model"
	"github.com/kilianp07/unitcommit/core/monitoring"
	coremqtt "github.com/kilianp07/unitcommit/core/mqtt"
	"github.com/kilianp07/unitcommit/core/runlog"
	"github.com/kilianp07/unitcommit/core/solver"
	"github.com/kilianp07/unitcommit/core/termination"
	"github.com/kilianp07/unitcommit/internal/eventbus"
)

// Request is one problem to solve.
type Request struct {
	Problem model.Problem
	Style   commitment.Style
}

// Deps are the collaborators of a solve session. Only Solver is required.
type Deps struct {
	Solver  solver.Solver
	Backend string
	// Termination enables the stall monitor when non-nil.
	Termination *termination.Config
	Bus         eventbus.EventBus
	Store       runlog.Store
	Publisher   coremqtt.SchedulePublisher
	Log         logger.Logger
}

// Report is the outcome of a solve session.
type Report struct {
	RunID  string
	Model  string
	Style  commitment.Style
	Status solver.Status
	// EarlyStopped is set when the monitor ended the search before
	// optimality was proven; the schedule is feasible but may be improvable.
	EarlyStopped bool
	StopReason   termination.Reason
	Objective    float64
	Gap          float64
	Runtime      time.Duration
	Variables    int
	Constraints  int
	Schedule     *commitment.Schedule
}

// Solve encodes the problem, runs the solver with the termination monitor
// attached and extracts the schedule. Infeasible and unbounded outcomes are
// reported through Report.Status, not as errors.
func Solve(ctx context.Context, req Request, deps Deps) (Report, error) {
	if deps.Solver == nil {
		return Report{}, fmt.Errorf("solve: no solver configured")
	}
	log := logger.OrNop(deps.Log)

	enc, err := commitment.Encode(req.Problem, req.Style)
	if err != nil {
		return Report{}, fmt.Errorf("encode: %w", err)
	}
	rep := Report{
		RunID:       uuid.NewString(),
		Model:       enc.Model.Name(),
		Style:       req.Style,
		Objective:   math.NaN(),
		Gap:         math.NaN(),
		Variables:   enc.Model.NumVars(),
		Constraints: enc.Model.NumConstraints(),
	}
	fields := enc.Model.Stats().Fields()
	fields["run_id"] = rep.RunID
	fields["style"] = req.Style.String()
	log.Infow("model encoded", fields)
	publish(deps.Bus, events.SolveStarted{
		RunID: rep.RunID, Model: rep.Model, Style: req.Style.String(),
		Variables: rep.Variables, Constraints: rep.Constraints,
	})

	var (
		mon *termination.Monitor
		cb  solver.Callback
	)
	if deps.Termination != nil {
		mon, err = termination.New(*deps.Termination,
			termination.WithLogger(log),
			termination.WithObserver(busObserver{bus: deps.Bus, runID: rep.RunID, model: rep.Model}))
		if err != nil {
			return rep, err
		}
		cb = mon.Callback()
	}

	res, err := deps.Solver.Solve(ctx, enc.Model, cb)
	if err != nil {
		err = fmt.Errorf("solve %s: %w", rep.Model, err)
		monitoring.CaptureException(err, map[string]string{"run_id": rep.RunID, "backend": deps.Backend})
		finish(ctx, deps, rep, err)
		return rep, err
	}

	rep.Status = res.Status
	rep.Objective = res.Objective
	rep.Gap = res.Gap
	rep.Runtime = res.Runtime
	if mon != nil && mon.Stopped() && res.Status != solver.StatusOptimal {
		rep.EarlyStopped = true
		rep.StopReason = mon.Decision().Reason
	}
	if res.Status.HasSolution() {
		sched, err := enc.Schedule(res.Values)
		if err != nil {
			err = fmt.Errorf("extract schedule: %w", err)
			monitoring.CaptureException(err, map[string]string{"run_id": rep.RunID, "backend": deps.Backend})
			finish(ctx, deps, rep, err)
			return rep, err
		}
		rep.Schedule = &sched
	}

	log.Infow("solve finished", map[string]any{
		"run_id":        rep.RunID,
		"status":        rep.Status.String(),
		"early_stopped": rep.EarlyStopped,
		"objective":     rep.Objective,
		"gap":           rep.Gap,
		"runtime":       rep.Runtime.Seconds(),
	})
	finish(ctx, deps, rep, nil)
	return rep, nil
}

// finish records the run, publishes the schedule and the final event.
// Failures here are logged; the solve outcome stands.
func finish(ctx context.Context, deps Deps, rep Report, solveErr error) {
	log := logger.OrNop(deps.Log)
	if deps.Store != nil {
		if err := deps.Store.Append(ctx, record(rep, deps.Backend, solveErr)); err != nil {
			log.Warnf("runlog append: %v", err)
		}
	}
	if deps.Publisher != nil && rep.Schedule != nil {
		if err := deps.Publisher.PublishSchedule(ctx, scheduleMessage(rep)); err != nil {
			log.Warnf("publish schedule: %v", err)
		}
	}
	publish(deps.Bus, events.SolveFinished{
		RunID: rep.RunID, Model: rep.Model, Style: rep.Style.String(), Backend: deps.Backend,
		Status: rep.Status.String(), EarlyStopped: rep.EarlyStopped, StopReason: string(rep.StopReason),
		Objective: rep.Objective, Gap: rep.Gap, Runtime: rep.Runtime,
		Variables: rep.Variables, Constraints: rep.Constraints, Err: solveErr,
	})
}

func record(rep Report, backend string, solveErr error) runlog.Record {
	rec := runlog.Record{
		RunID:        rep.RunID,
		Timestamp:    time.Now().UTC(),
		Model:        rep.Model,
		Style:        rep.Style.String(),
		Backend:      backend,
		Status:       rep.Status.String(),
		EarlyStopped: rep.EarlyStopped,
		StopReason:   string(rep.StopReason),
		Objective:    runlog.Float(rep.Objective),
		Gap:          runlog.Float(rep.Gap),
		RuntimeSec:   rep.Runtime.Seconds(),
		Variables:    rep.Variables,
		Constraints:  rep.Constraints,
		Schedule:     rep.Schedule,
	}
	if solveErr != nil {
		rec.Error = solveErr.Error()
	}
	return rec
}

func scheduleMessage(rep Report) coremqtt.ScheduleMessage {
	return coremqtt.ScheduleMessage{
		RunID:        rep.RunID,
		Model:        rep.Model,
		Status:       rep.Status.String(),
		EarlyStopped: rep.EarlyStopped,
		StopReason:   string(rep.StopReason),
		Objective:    runlog.Float(rep.Objective),
		Gap:          runlog.Float(rep.Gap),
		Timestamp:    time.Now().UTC(),
		Schedule:     *rep.Schedule,
	}
}

func publish(bus eventbus.EventBus, ev eventbus.Event) {
	if bus != nil {
		bus.Publish(ev)
	}
}

// busObserver forwards monitor decisions to the event bus.
type busObserver struct {
	bus   eventbus.EventBus
	runID string
	model string
}

func (o busObserver) GapImproved(gap float64, at time.Duration) {
	publish(o.bus, events.GapImproved{RunID: o.runID, Model: o.model, Gap: gap, Runtime: at})
}

func (o busObserver) Terminated(d termination.Decision) {
	publish(o.bus, events.TerminationRequested{
		RunID: o.runID, Model: o.model, Reason: string(d.Reason), Gap: d.Gap,
		Runtime: d.Runtime, SinceImprovement: d.SinceImprovement,
	})
}
