package metrics

import (
	"fmt"

	"github.com/kilianp07/unitcommit/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink type names.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the configured sinks. No configuration yields a
// NopSink and several configurations fan out through a MultiSink. When one
// sink fails to build, the ones already built are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		s, err := sinkRegistry.Create(cfgs[0])
		if err != nil {
			return nil, fmt.Errorf("metrics sink %q: %w", cfgs[0].Type, err)
		}
		return s, nil
	}
	multi := NewMultiSink()
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			multi.Close()
			return nil, fmt.Errorf("metrics sink %d (%q): %w", i, c.Type, err)
		}
		multi.Sinks = append(multi.Sinks, s)
	}
	return multi, nil
}
