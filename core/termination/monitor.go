// Package termination stops a solver search once the optimality gap has
// stopped improving for a configured window of solve time.
package termination

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/unitcommit/core/logger"
	"github.com/kilianp07/unitcommit/core/solver"
)

// State of a monitor during one solve.
type State int

const (
	// Idle: no feasible solution reported yet.
	Idle State = iota
	// Monitoring: at least one feasible solution exists, gap is tracked.
	Monitoring
	// Terminated: a stop was requested. Final.
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Monitoring:
		return "monitoring"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Reason explains why the monitor requested termination.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonStalled   Reason = "stalled"
	ReasonHardLimit Reason = "hard_limit"
)

// Decision records the termination request issued by the monitor.
type Decision struct {
	Reason  Reason
	Runtime time.Duration
	Gap     float64
	// SinceImprovement is the solve time elapsed since the last meaningful
	// gap change when the request was issued.
	SinceImprovement time.Duration
}

// Observer receives the monitor's notable observations. Calls are made from
// the solver callback and must not block.
type Observer interface {
	GapImproved(gap float64, at time.Duration)
	Terminated(d Decision)
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithLogger sets the logger used for observations and recovered faults.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) { m.log = logger.OrNop(l) }
}

// WithObserver registers an observer. Several may be set.
func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// Monitor tracks the best gap seen and the time of its last meaningful
// change. One Monitor serves exactly one solve; its callback is assumed to
// be invoked serially, so the state carries no lock.
type Monitor struct {
	cfg       Config
	log       logger.Logger
	observers []Observer

	state           State
	bestGap         float64
	lastImprovement time.Duration
	improved        bool
	decision        Decision
}

// New validates cfg and returns a monitor in the Idle state.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		cfg:     cfg,
		log:     logger.Nop{},
		bestGap: math.Inf(1),
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Callback adapts the monitor to the solver callback signature.
func (m *Monitor) Callback() solver.Callback { return m.Observe }

// Observe evaluates one progress report. It never fails: a fault while
// reading progress leaves the state unchanged for this call.
func (m *Monitor) Observe(p solver.Progress) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorf("termination monitor: recovered from panic: %v", r)
		}
	}()
	if p == nil || m.state == Terminated {
		return
	}

	if m.state == Idle {
		n, err := p.SolutionCount()
		if err != nil || n <= 0 {
			return
		}
		m.state = Monitoring
	}

	if p.Terminated() {
		return
	}

	now, err := p.Runtime()
	if err != nil {
		m.log.Debugf("termination monitor: runtime unavailable: %v", err)
		return
	}
	gap, err := p.Gap()
	if err != nil || math.IsNaN(gap) {
		m.log.Debugf("termination monitor: gap unavailable: %v", err)
		return
	}

	if m.cfg.HardLimit > 0 && now >= m.cfg.HardLimit {
		m.terminate(p, ReasonHardLimit, now, gap)
		return
	}

	if !m.improved || math.Abs(gap-m.bestGap) > m.cfg.GapEpsilon {
		m.bestGap = gap
		m.lastImprovement = now
		m.improved = true
		m.log.Infow("gap improved", map[string]any{
			"gap":     gap,
			"runtime": now.Seconds(),
		})
		for _, o := range m.observers {
			o.GapImproved(gap, now)
		}
		return
	}

	if now-m.lastImprovement > m.cfg.StallWindow {
		m.terminate(p, ReasonStalled, now, gap)
	}
}

func (m *Monitor) terminate(p solver.Progress, reason Reason, now time.Duration, gap float64) {
	m.state = Terminated
	m.decision = Decision{Reason: reason, Runtime: now, Gap: gap}
	if m.improved {
		m.decision.SinceImprovement = now - m.lastImprovement
	}
	m.log.Infow("requesting solver termination", map[string]any{
		"reason":            string(reason),
		"runtime":           now.Seconds(),
		"gap":               gap,
		"since_improvement": m.decision.SinceImprovement.Seconds(),
	})
	p.Terminate()
	for _, o := range m.observers {
		o.Terminated(m.decision)
	}
}

// State returns the current state.
func (m *Monitor) State() State { return m.state }

// BestGap returns the gap recorded at the last meaningful change, or +Inf
// before the first observation.
func (m *Monitor) BestGap() float64 { return m.bestGap }

// LastImprovement returns the solve time of the last meaningful gap change
// and false when none was observed yet.
func (m *Monitor) LastImprovement() (time.Duration, bool) {
	return m.lastImprovement, m.improved
}

// Stopped reports whether the monitor requested termination.
func (m *Monitor) Stopped() bool { return m.state == Terminated }

// Decision returns the termination request, valid when Stopped is true.
func (m *Monitor) Decision() Decision { return m.decision }
