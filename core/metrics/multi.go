package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink receives the
// record; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolveResult forwards the result to all sinks.
func (m *MultiSink) RecordSolveResult(res SolveResult) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordSolveResult(res))
	}
	return errors.Join(errs...)
}

// RecordGap forwards gap observations to sinks supporting them.
func (m *MultiSink) RecordGap(ev GapObservation) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(GapRecorder); ok {
			errs = append(errs, r.RecordGap(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordTermination forwards termination events to sinks supporting them.
func (m *MultiSink) RecordTermination(ev TerminationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(TerminationRecorder); ok {
			errs = append(errs, r.RecordTermination(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
