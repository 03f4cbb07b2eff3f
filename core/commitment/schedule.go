package commitment

import (
	"fmt"
	"math"

	"github.com/kilianp07/unitcommit/core/mip"
)

// Interval is the state of a unit during one time interval.
type Interval struct {
	Output    float64 `json:"output"`
	Committed bool    `json:"committed"`
	Startup   bool    `json:"startup"`
	Shutdown  bool    `json:"shutdown"`
}

// UnitSchedule is the trajectory of one unit over the horizon.
type UnitSchedule struct {
	Unit      string     `json:"unit"`
	Intervals []Interval `json:"intervals"`
}

// Schedule is the decoded solution of an encoded problem.
type Schedule struct {
	Units     []UnitSchedule `json:"units"`
	Demand    []float64      `json:"demand"`
	Renewable []float64      `json:"renewable"`
}

// Schedule decodes solver values into a schedule. Binary values are rounded.
func (e *Encoding) Schedule(values []float64) (Schedule, error) {
	if len(values) != e.Model.NumVars() {
		return Schedule{}, fmt.Errorf("%w: %d values for %d variables", mip.ErrDimension, len(values), e.Model.NumVars())
	}
	s := Schedule{
		Units:     make([]UnitSchedule, len(e.Units)),
		Demand:    append([]float64(nil), e.Forecast.Demand...),
		Renewable: append([]float64(nil), e.Forecast.Renewable...),
	}
	for g, u := range e.Units {
		us := UnitSchedule{Unit: u.Name, Intervals: make([]Interval, e.Horizon())}
		for t := range us.Intervals {
			us.Intervals[t] = Interval{
				Output:    values[e.Output.At(g, t)],
				Committed: math.Round(values[e.Committed.At(g, t)]) == 1,
				Startup:   math.Round(values[e.Startup.At(g, t)]) == 1,
				Shutdown:  math.Round(values[e.Shutdown.At(g, t)]) == 1,
			}
		}
		s.Units[g] = us
	}
	return s, nil
}

// Assignment is the inverse of Schedule: it lays a schedule out as a value
// vector indexed by the model variables.
func (e *Encoding) Assignment(s Schedule) ([]float64, error) {
	if len(s.Units) != len(e.Units) {
		return nil, fmt.Errorf("%w: schedule has %d units, model %d", mip.ErrDimension, len(s.Units), len(e.Units))
	}
	x := make([]float64, e.Model.NumVars())
	for g, us := range s.Units {
		if len(us.Intervals) != e.Horizon() {
			return nil, fmt.Errorf("%w: unit %s has %d intervals", mip.ErrDimension, us.Unit, len(us.Intervals))
		}
		for t, iv := range us.Intervals {
			x[e.Output.At(g, t)] = iv.Output
			x[e.Committed.At(g, t)] = b2f(iv.Committed)
			x[e.Startup.At(g, t)] = b2f(iv.Startup)
			x[e.Shutdown.At(g, t)] = b2f(iv.Shutdown)
		}
	}
	return x, nil
}

// Cost evaluates the closed-form cost of a schedule.
func (e *Encoding) Cost(s Schedule) float64 {
	var total float64
	for g, us := range s.Units {
		u := e.Units[g]
		for _, iv := range us.Intervals {
			total += u.IntervalCost(iv.Committed, iv.Output, iv.Startup, iv.Shutdown)
		}
	}
	return total
}

// CommittedOutput returns the total thermal output per interval.
func (s Schedule) CommittedOutput() []float64 {
	out := make([]float64, len(s.Demand))
	for _, us := range s.Units {
		for t, iv := range us.Intervals {
			out[t] += iv.Output
		}
	}
	return out
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
