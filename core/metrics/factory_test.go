package metrics_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/unitcommit/core/factory"
	metrics "github.com/kilianp07/unitcommit/core/metrics"
	_ "github.com/kilianp07/unitcommit/infra/metrics"
)

type closingSink struct {
	metrics.NopSink
	closed *int
}

func (s closingSink) Close() { *s.closed++ }

func TestNewMetricsSinkBuiltins(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink without configuration, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	assert.Len(t, m.Sinks, 2)
	assert.Subset(t, metrics.SinkTypes(), []string{"influx", "nop", "prometheus"})
}

func TestNewMetricsSinkUnknownType(t *testing.T) {
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "graphite"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"graphite"`)
}

var (
	closedSinks int
	errBadConf  = errors.New("bad conf")
)

func init() {
	_ = metrics.RegisterMetricsSink("closing-test", func(map[string]any) (metrics.MetricsSink, error) {
		return closingSink{closed: &closedSinks}, nil
	})
	_ = metrics.RegisterMetricsSink("failing-test", func(map[string]any) (metrics.MetricsSink, error) {
		return nil, errBadConf
	})
}

func TestNewMetricsSinkClosesBuiltSinksOnError(t *testing.T) {
	closedSinks = 0
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "closing-test"}, {Type: "closing-test"}, {Type: "failing-test"}})
	require.ErrorIs(t, err, errBadConf)
	assert.True(t, strings.HasPrefix(err.Error(), "metrics sink 2"), err.Error())
	assert.Equal(t, 2, closedSinks)
}
