// Package gurobi runs models through the gurobi_cl command line tool. The
// model is written in LP format, progress is followed on the solver log and
// a termination request interrupts the process, which then reports its best
// solution.
package gurobi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/unitcommit/core/factory"
	"github.com/kilianp07/unitcommit/core/mip"
	"github.com/kilianp07/unitcommit/core/solver"
	"github.com/kilianp07/unitcommit/infra/logger"
	"github.com/kilianp07/unitcommit/infra/solver/lpfile"
)

// Config configures the gurobi_cl invocation.
type Config struct {
	Binary  string `json:"binary"`
	WorkDir string `json:"work_dir"`
	Threads int    `json:"threads"`
	// Params are passed as Name=Value arguments, e.g. MIPGap or TimeLimit.
	Params    map[string]string `json:"params"`
	KeepFiles bool              `json:"keep_files"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Binary == "" {
		c.Binary = "gurobi_cl"
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("gurobi: threads must not be negative")
	}
	for k := range c.Params {
		if k == "" || strings.ContainsAny(k, "= ") {
			return fmt.Errorf("gurobi: invalid parameter name %q", k)
		}
		switch strings.ToLower(k) {
		case "resultfile", "logtoconsole":
			return fmt.Errorf("gurobi: parameter %s is managed by the adapter", k)
		}
	}
	return nil
}

var execCommand = exec.CommandContext

// Solver implements solver.Solver on top of gurobi_cl.
type Solver struct {
	cfg Config
	log logger.Logger
}

// New returns a Solver for cfg.
func New(cfg Config) (*Solver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{cfg: cfg, log: logger.New("gurobi")}, nil
}

func init() {
	if err := solver.Register("gurobi", factory.Typed(func(cfg Config) (solver.Solver, error) {
		return New(cfg)
	})); err != nil {
		panic(err)
	}
}

func (s *Solver) args(solPath, lpPath string) []string {
	args := []string{"ResultFile=" + solPath, "LogToConsole=1"}
	if s.cfg.Threads > 0 {
		args = append(args, fmt.Sprintf("Threads=%d", s.cfg.Threads))
	}
	keys := make([]string, 0, len(s.cfg.Params))
	for k := range s.cfg.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k+"="+s.cfg.Params[k])
	}
	return append(args, lpPath)
}

// Solve writes m to a temporary LP file and runs gurobi_cl on it. cb is
// called after every progress line of the log.
func (s *Solver) Solve(ctx context.Context, m *mip.Model, cb solver.Callback) (solver.Result, error) {
	dir, err := os.MkdirTemp(s.cfg.WorkDir, "gurobi-*")
	if err != nil {
		return solver.Result{}, fmt.Errorf("gurobi: work dir: %w", err)
	}
	if !s.cfg.KeepFiles {
		defer os.RemoveAll(dir)
	}
	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	if err := lpfile.WriteFile(lpPath, m); err != nil {
		return solver.Result{}, err
	}
	names, err := lpfile.VarNames(m)
	if err != nil {
		return solver.Result{}, err
	}

	cmd := execCommand(ctx, s.cfg.Binary, s.args(solPath, lpPath)...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 10 * time.Second
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return solver.Result{}, err
	}
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return solver.Result{}, fmt.Errorf("gurobi: start %s: %w", s.cfg.Binary, err)
	}
	s.log.Infow("solver started", map[string]any{"model": m.Name(), "pid": cmd.Process.Pid, "dir": dir})

	p := &progress{start: start, proc: cmd.Process, log: s.log}
	sum := s.follow(stdout, p, cb)
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	if ctx.Err() != nil && !sum.hasBest && sum.status == solver.StatusUnknown {
		return solver.Result{}, ctx.Err()
	}
	if waitErr != nil && !p.Terminated() && sum.status == solver.StatusUnknown && !sum.hasBest {
		return solver.Result{}, fmt.Errorf("gurobi: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	return s.result(sum, p, names, solPath, elapsed)
}

// follow consumes the solver log until EOF.
func (s *Solver) follow(r io.Reader, p *progress, cb solver.Callback) summary {
	var sum summary
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		s.log.Debugf("%s", line)
		sum.summarize(line)
		ev := parseLine(line)
		if !ev.progress {
			continue
		}
		p.apply(ev)
		if cb != nil {
			cb(p)
		}
	}
	if err := sc.Err(); err != nil {
		s.log.Warnf("gurobi: reading log: %v", err)
	}
	_, _ = io.Copy(io.Discard, r)
	return sum
}

func (s *Solver) result(sum summary, p *progress, names []string, solPath string, elapsed time.Duration) (solver.Result, error) {
	res := solver.Result{
		Status:      sum.status,
		Objective:   math.NaN(),
		Bound:       math.NaN(),
		Gap:         math.NaN(),
		Runtime:     elapsed,
		Interrupted: sum.interrupted || p.Terminated(),
	}
	if sum.runtime > 0 {
		res.Runtime = sum.runtime
	}
	if sum.hasBest {
		res.Objective, res.Bound, res.Gap = sum.objective, sum.bound, sum.gap
	}
	solutions := sum.count
	if n, _ := p.SolutionCount(); n > solutions {
		solutions = n
	}
	if res.Status == solver.StatusUnknown {
		if solutions > 0 {
			res.Status = solver.StatusFeasible
		} else {
			res.Status = solver.StatusNoSolution
		}
	}
	if !res.Status.HasSolution() {
		return res, nil
	}
	f, err := os.Open(solPath)
	if err != nil {
		return solver.Result{}, fmt.Errorf("gurobi: %s reported a solution but no result file: %w", res.Status, err)
	}
	defer f.Close()
	values, err := readSolution(f, names)
	if err != nil {
		return solver.Result{}, err
	}
	res.Values = values
	return res, nil
}

// progress implements solver.Progress from the parsed log.
type progress struct {
	start time.Time
	proc  *os.Process
	log   logger.Logger

	solutions  int
	runtime    time.Duration
	hasRuntime bool
	gap        float64
	hasGap     bool

	once       sync.Once
	terminated bool
}

func (p *progress) apply(ev event) {
	if ev.solution {
		p.solutions++
	}
	if ev.hasRuntime {
		p.runtime = ev.runtime
		p.hasRuntime = true
	}
	if ev.hasGap {
		p.gap = ev.gap
		p.hasGap = true
	}
}

func (p *progress) SolutionCount() (int, error) { return p.solutions, nil }

// Runtime prefers the solver's own clock and falls back to the time since
// the process started.
func (p *progress) Runtime() (time.Duration, error) {
	if p.hasRuntime {
		return p.runtime, nil
	}
	return time.Since(p.start), nil
}

func (p *progress) Gap() (float64, error) {
	if !p.hasGap {
		return math.NaN(), solver.ErrNoProgress
	}
	return p.gap, nil
}

func (p *progress) Terminated() bool { return p.terminated }

// Terminate interrupts the process; gurobi_cl then stops the search and
// writes its best solution.
func (p *progress) Terminate() {
	p.once.Do(func() {
		p.terminated = true
		if err := p.proc.Signal(os.Interrupt); err != nil {
			p.log.Warnf("gurobi: interrupt: %v", err)
		}
	})
}
