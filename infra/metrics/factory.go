package metrics

import (
	"github.com/kilianp07/unitcommit/core/factory"
	coremetrics "github.com/kilianp07/unitcommit/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	// The /metrics endpoint is started from metrics.prometheus_addr.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterMetricsSink("influx", factory.Typed(func(c InfluxConfig) (coremetrics.MetricsSink, error) {
		return NewInfluxSinkWithFallback(c), nil
	}))
}
