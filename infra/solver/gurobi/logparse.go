package gurobi

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/unitcommit/core/solver"
)

var (
	heuristicRe = regexp.MustCompile(`^Found heuristic solution: objective\s+(\S+)`)
	// Branch-and-bound table rows. A leading H or * marks a new incumbent;
	// the last two columns are the gap (or "-") and the elapsed time.
	nodeRe  = regexp.MustCompile(`^\s*([H*])?\s*\d+\+?\s+\d+\s.*?\s(-|[0-9.]+%)\s+\S+\s+(\d+)s\s*$`)
	bestRe  = regexp.MustCompile(`^Best objective (\S+), best bound (\S+), gap (\S+?)%?$`)
	countRe = regexp.MustCompile(`^Solution count (\d+)`)
	explRe  = regexp.MustCompile(`in ([0-9.]+) seconds`)
)

// event is what one log line tells about the search.
type event struct {
	progress   bool
	solution   bool
	runtime    time.Duration
	hasRuntime bool
	gap        float64
	hasGap     bool
}

// summary collects the final report printed by gurobi_cl.
type summary struct {
	status      solver.Status
	interrupted bool
	objective   float64
	bound       float64
	gap         float64
	hasBest     bool
	count       int
	runtime     time.Duration
}

// parseLine interprets a progress line of the solver log.
func parseLine(line string) event {
	if heuristicRe.MatchString(line) {
		return event{progress: true, solution: true}
	}
	m := nodeRe.FindStringSubmatch(line)
	if m == nil {
		return event{}
	}
	ev := event{progress: true, solution: m[1] != ""}
	if secs, err := strconv.Atoi(m[3]); err == nil {
		ev.runtime = time.Duration(secs) * time.Second
		ev.hasRuntime = true
	}
	if m[2] != "-" {
		if g, err := strconv.ParseFloat(strings.TrimSuffix(m[2], "%"), 64); err == nil {
			ev.gap = g / 100
			ev.hasGap = true
		}
	}
	return ev
}

// summarize updates s with the outcome lines of the log.
func (s *summary) summarize(line string) {
	switch {
	case strings.HasPrefix(line, "Optimal solution found"):
		s.status = solver.StatusOptimal
	case strings.HasPrefix(line, "Model is infeasible or unbounded"):
		s.status = solver.StatusInfeasibleOrUnbounded
	case strings.HasPrefix(line, "Model is infeasible"):
		s.status = solver.StatusInfeasible
	case strings.HasPrefix(line, "Model is unbounded"):
		s.status = solver.StatusUnbounded
	case strings.HasPrefix(line, "Solve interrupted"):
		s.interrupted = true
	}
	if m := bestRe.FindStringSubmatch(line); m != nil {
		s.objective, _ = parseNum(m[1])
		s.bound, _ = parseNum(m[2])
		if g, ok := parseNum(m[3]); ok {
			s.gap = g / 100
		}
		s.hasBest = true
	}
	if m := countRe.FindStringSubmatch(line); m != nil {
		s.count, _ = strconv.Atoi(m[1])
	}
	if strings.HasPrefix(line, "Explored ") {
		if m := explRe.FindStringSubmatch(line); m != nil {
			if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
				s.runtime = time.Duration(math.Round(secs*1000)) * time.Millisecond
			}
		}
	}
}

func parseNum(s string) (float64, bool) {
	if s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
