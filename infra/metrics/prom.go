package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
)

// PromSink exposes solve outcomes and monitor activity as Prometheus metrics.
type PromSink struct {
	solves       *prometheus.CounterVec
	runtime      *prometheus.HistogramVec
	gap          *prometheus.GaugeVec
	objective    *prometheus.GaugeVec
	improvements *prometheus.CounterVec
	terminations *prometheus.CounterVec
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unitcommit_solves_total",
			Help: "Total number of finished solves",
		}, []string{"model", "status", "early_stopped"}),
		runtime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unitcommit_solve_runtime_seconds",
			Help:    "Solver runtime per solve",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"model", "style"}),
		gap: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "unitcommit_optimality_gap",
			Help: "Last reported relative optimality gap",
		}, []string{"model"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "unitcommit_objective",
			Help: "Objective value of the last solve with a solution",
		}, []string{"model"}),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unitcommit_gap_improvements_total",
			Help: "Meaningful gap changes observed by the termination monitor",
		}, []string{"model"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unitcommit_early_terminations_total",
			Help: "Termination requests issued by the termination monitor",
		}, []string{"model", "reason"}),
	}
	var err error
	if s.solves, err = register(reg, s.solves); err != nil {
		return nil, err
	}
	if s.runtime, err = register(reg, s.runtime); err != nil {
		return nil, err
	}
	if s.gap, err = register(reg, s.gap); err != nil {
		return nil, err
	}
	if s.objective, err = register(reg, s.objective); err != nil {
		return nil, err
	}
	if s.improvements, err = register(reg, s.improvements); err != nil {
		return nil, err
	}
	if s.terminations, err = register(reg, s.terminations); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an already registered collector.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolveResult counts the solve and records its runtime and quality.
func (s *PromSink) RecordSolveResult(r coremetrics.SolveResult) error {
	s.solves.WithLabelValues(r.Model, r.Status, strconv.FormatBool(r.EarlyStopped)).Inc()
	s.runtime.WithLabelValues(r.Model, r.Style).Observe(r.Runtime.Seconds())
	if isFinite(r.Gap) {
		s.gap.WithLabelValues(r.Model).Set(r.Gap)
	}
	if isFinite(r.Objective) {
		s.objective.WithLabelValues(r.Model).Set(r.Objective)
	}
	return nil
}

// RecordGap tracks the gap as it improves during the search.
func (s *PromSink) RecordGap(ev coremetrics.GapObservation) error {
	s.improvements.WithLabelValues(ev.Model).Inc()
	if isFinite(ev.Gap) {
		s.gap.WithLabelValues(ev.Model).Set(ev.Gap)
	}
	return nil
}

// RecordTermination counts early termination requests by reason.
func (s *PromSink) RecordTermination(ev coremetrics.TerminationEvent) error {
	s.terminations.WithLabelValues(ev.Model, ev.Reason).Inc()
	return nil
}
