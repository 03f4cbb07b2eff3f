package metrics

import "time"

// SolveResult summarizes one finished solve.
type SolveResult struct {
	RunID        string
	Model        string
	Style        string
	Backend      string
	Status       string
	EarlyStopped bool
	StopReason   string
	Objective    float64
	Gap          float64
	Runtime      time.Duration
	Variables    int
	Constraints  int
	Time         time.Time
}

// MetricsSink records solve results.
type MetricsSink interface {
	RecordSolveResult(res SolveResult) error
}

// GapObservation is a meaningful gap change seen during a solve.
type GapObservation struct {
	RunID   string
	Model   string
	Gap     float64
	Runtime time.Duration
	Time    time.Time
}

// GapRecorder records gap improvements.
type GapRecorder interface {
	RecordGap(ev GapObservation) error
}

// TerminationEvent is an early termination request.
type TerminationEvent struct {
	RunID            string
	Model            string
	Reason           string
	Gap              float64
	Runtime          time.Duration
	SinceImprovement time.Duration
	Time             time.Time
}

// TerminationRecorder records termination requests.
type TerminationRecorder interface {
	RecordTermination(ev TerminationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolveResult(SolveResult) error      { return nil }
func (NopSink) RecordGap(GapObservation) error           { return nil }
func (NopSink) RecordTermination(TerminationEvent) error { return nil }
