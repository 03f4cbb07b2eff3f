package termination

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProgress struct {
	solutions  int
	runtime    time.Duration
	gap        float64
	gapErr     error
	panicOnGap bool
	stopped    bool

	gapReads       int
	terminateCalls int
}

func (f *fakeProgress) SolutionCount() (int, error)     { return f.solutions, nil }
func (f *fakeProgress) Runtime() (time.Duration, error) { return f.runtime, nil }
func (f *fakeProgress) Gap() (float64, error) {
	f.gapReads++
	if f.panicOnGap {
		panic("gap exploded")
	}
	return f.gap, f.gapErr
}
func (f *fakeProgress) Terminated() bool { return f.stopped }
func (f *fakeProgress) Terminate() {
	f.terminateCalls++
	f.stopped = true
}

type obs struct {
	at  float64
	gap float64
}

type recorder struct {
	improvements []float64
	decisions    []Decision
}

func (r *recorder) GapImproved(gap float64, _ time.Duration) { r.improvements = append(r.improvements, gap) }
func (r *recorder) Terminated(d Decision)                    { r.decisions = append(r.decisions, d) }

func secs(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// run feeds the observations and returns the index at which the first
// termination request was issued, or -1.
func run(t *testing.T, m *Monitor, p *fakeProgress, seq []obs) int {
	t.Helper()
	at := -1
	cb := m.Callback()
	for i, o := range seq {
		p.runtime = secs(o.at)
		p.gap = o.gap
		cb(p)
		if at < 0 && p.terminateCalls > 0 {
			at = i
		}
	}
	return at
}

func newMonitor(t *testing.T, cfg Config, opts ...Option) *Monitor {
	t.Helper()
	m, err := New(cfg, opts...)
	require.NoError(t, err)
	return m
}

func TestStallTerminatesAtFirstCallbackPastWindow(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1}
	seq := []obs{{0, 0.5}, {5, 0.5}, {10, 0.5}, {15, 0.5}, {16, 0.5}, {17, 0.5}}
	at := run(t, m, p, seq)
	if at != 4 {
		t.Fatalf("expected termination at callback 4 (t=16s), got %d", at)
	}
	if p.terminateCalls != 1 {
		t.Fatalf("expected a single terminate request, got %d", p.terminateCalls)
	}
	d := m.Decision()
	if d.Reason != ReasonStalled || d.Runtime != 16*time.Second || d.SinceImprovement != 16*time.Second {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestWindowEqualityDoesNotTerminate(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 3}
	if at := run(t, m, p, []obs{{2, 0.1}, {17, 0.1}}); at != -1 {
		t.Fatalf("window reached but not exceeded, got termination at %d", at)
	}
	assert.Equal(t, Monitoring, m.State())
}

func TestLargeGapChangeResetsStallClock(t *testing.T) {
	base := []obs{{0, 0.5}, {10, 0.49995}, {14, 0.5}, {16, 0.5}}
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1}
	at := run(t, m, p, base)
	require.Equal(t, 3, at, "small fluctuations must not reset the clock")

	reset := []obs{{0, 0.5}, {10, 0.49995}, {14, 0.3}, {16, 0.3}, {29, 0.3}, {30, 0.3}}
	m = newMonitor(t, DefaultConfig())
	p = &fakeProgress{solutions: 1}
	at = run(t, m, p, reset)
	require.Equal(t, 5, at)
	last, ok := m.LastImprovement()
	assert.True(t, ok)
	assert.Equal(t, 14*time.Second, last)
	assert.InDelta(t, 0.3, m.BestGap(), 1e-12)
}

func TestGapIncreaseAlsoCounts(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1}
	at := run(t, m, p, []obs{{0, 0.2}, {10, 0.4}, {20, 0.4}, {26, 0.4}})
	assert.Equal(t, 3, at)
}

func TestEndToEndStabilizingGap(t *testing.T) {
	rec := &recorder{}
	m := newMonitor(t, DefaultConfig(), WithObserver(rec))
	p := &fakeProgress{}
	seq := []obs{{0.5, math.Inf(1)}}
	for _, o := range []obs{{1, 0.9}, {2, 0.6}, {4, 0.4}, {7, 0.2}} {
		seq = append(seq, o)
	}
	for s := 8; s <= 40; s++ {
		seq = append(seq, obs{float64(s), 0.2 + 1e-6*float64(s%3)})
	}

	cb := m.Callback()
	var stoppedAt time.Duration
	for i, o := range seq {
		p.solutions = 0
		if i > 0 {
			p.solutions = i
		}
		p.runtime = secs(o.at)
		p.gap = o.gap
		cb(p)
		if p.terminateCalls == 1 && stoppedAt == 0 {
			stoppedAt = p.runtime
		}
	}

	assert.Equal(t, 1, p.terminateCalls)
	assert.Equal(t, 23*time.Second, stoppedAt)
	assert.Equal(t, []float64{0.9, 0.6, 0.4, 0.2}, rec.improvements)
	require.Len(t, rec.decisions, 1)
	assert.Equal(t, ReasonStalled, rec.decisions[0].Reason)
	assert.True(t, m.Stopped())
	assert.Equal(t, Terminated, m.State())
}

func TestIdleUntilFirstSolution(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{runtime: time.Hour, gap: math.Inf(1)}
	for i := 0; i < 5; i++ {
		m.Observe(p)
	}
	if p.gapReads != 0 {
		t.Fatalf("gap read %d times before any solution", p.gapReads)
	}
	if m.State() != Idle || !math.IsInf(m.BestGap(), 1) {
		t.Fatalf("unexpected state %v best %v", m.State(), m.BestGap())
	}
	p.solutions = 1
	p.gap = 0.3
	m.Observe(p)
	if m.State() != Monitoring || m.BestGap() != 0.3 {
		t.Fatalf("expected monitoring with best 0.3, got %v %v", m.State(), m.BestGap())
	}
}

func TestPendingStopIsLeftAlone(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1, stopped: true, runtime: time.Minute, gap: 0.1}
	m.Observe(p)
	assert.Equal(t, 0, p.terminateCalls)
	assert.Equal(t, 0, p.gapReads)
	assert.False(t, m.Stopped())
	_, ok := m.LastImprovement()
	assert.False(t, ok)
}

func TestProgressFaultsAreIgnored(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1, gapErr: errors.New("no gap")}
	run(t, m, p, []obs{{0, 0.1}, {30, 0.1}})
	assert.Equal(t, 0, p.terminateCalls)
	_, ok := m.LastImprovement()
	assert.False(t, ok)

	p.gapErr = nil
	run(t, m, p, []obs{{31, math.NaN()}, {32, 0.1}, {40, math.NaN()}, {47, 0.1}})
	assert.Equal(t, 0, p.terminateCalls)
	last, _ := m.LastImprovement()
	assert.Equal(t, 32*time.Second, last)
}

func TestPanicInsideCallbackIsRecovered(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1, panicOnGap: true}
	assert.NotPanics(t, func() { m.Observe(p) })
	assert.Equal(t, 0, p.terminateCalls)
	assert.False(t, m.Stopped())
}

func TestHardLimitBackstop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HardLimit = 10 * time.Second
	m := newMonitor(t, cfg)
	p := &fakeProgress{solutions: 1}
	seq := make([]obs, 0, 12)
	for s := 0; s < 12; s++ {
		seq = append(seq, obs{float64(s), 1 / float64(s+2)})
	}
	at := run(t, m, p, seq)
	assert.Equal(t, 10, at)
	assert.Equal(t, ReasonHardLimit, m.Decision().Reason)
	assert.Equal(t, 1, p.terminateCalls)
}

func TestTerminatedIsFinal(t *testing.T) {
	m := newMonitor(t, DefaultConfig())
	p := &fakeProgress{solutions: 1}
	run(t, m, p, []obs{{0, 0.1}, {20, 0.1}})
	require.True(t, m.Stopped())
	p.stopped = false
	reads := p.gapReads
	run(t, m, p, []obs{{21, 0.05}, {60, 0.05}})
	assert.Equal(t, 1, p.terminateCalls)
	assert.Equal(t, reads, p.gapReads)
	assert.InDelta(t, 0.1, m.BestGap(), 1e-12)
}

func TestConfigValidate(t *testing.T) {
	cases := []Config{
		{StallWindow: 0, GapEpsilon: 1e-4},
		{StallWindow: time.Second, GapEpsilon: -1},
		{StallWindow: time.Second, GapEpsilon: math.NaN()},
		{StallWindow: time.Second, GapEpsilon: 1e-4, HardLimit: -time.Second},
	}
	for _, c := range cases {
		if _, err := New(c); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
