package model

import (
	"fmt"
	"math"
	"strconv"
)

// Forecast holds the per-interval demand and must-take renewable generation.
type Forecast struct {
	Demand    []float64 `json:"demand" yaml:"demand"`
	Renewable []float64 `json:"renewable" yaml:"renewable"`
}

// Problem is a unit commitment instance as stored in a problem file. Unit
// parameters are keyed by unit name; Units fixes their order.
type Problem struct {
	Name          string               `json:"name" yaml:"name"`
	Units         []string             `json:"units" yaml:"units"`
	Costs         map[string]CostCurve `json:"costs" yaml:"costs"`
	Limits        map[string]Limits    `json:"limits" yaml:"limits"`
	InitialStatus map[string]int       `json:"initial_status" yaml:"initial_status"`
	Forecast      Forecast             `json:"forecast" yaml:"forecast"`
}

// Horizon returns the number of time intervals.
func (p Problem) Horizon() int { return len(p.Forecast.Demand) }

// IntervalLabels returns "0".."T-1".
func (p Problem) IntervalLabels() []string {
	labels := make([]string, p.Horizon())
	for t := range labels {
		labels[t] = strconv.Itoa(t)
	}
	return labels
}

// ResolveUnits validates the problem and assembles the unit list. It fails
// with a *ConfigError naming the unit, interval and parameter at fault.
func (p Problem) ResolveUnits() ([]Unit, error) {
	if err := p.validateForecast(); err != nil {
		return nil, err
	}
	if len(p.Units) == 0 {
		return nil, unitErr("", "units", "no generating unit")
	}
	seen := make(map[string]bool, len(p.Units))
	units := make([]Unit, 0, len(p.Units))
	for _, name := range p.Units {
		if name == "" {
			return nil, unitErr("", "units", "empty unit name")
		}
		if seen[name] {
			return nil, unitErr(name, "units", "duplicate unit")
		}
		seen[name] = true

		cost, ok := p.Costs[name]
		if !ok {
			return nil, unitErr(name, "costs", "missing cost coefficients")
		}
		lim, ok := p.Limits[name]
		if !ok {
			return nil, unitErr(name, "limits", "missing operating limits")
		}
		if lim.Min < 0 || lim.Min > lim.Max || !finite(lim.Min, lim.Max) {
			return nil, unitErr(name, "limits", fmt.Sprintf("invalid range [%g, %g]", lim.Min, lim.Max))
		}
		if !finite(cost.Fixed, cost.Linear, cost.Quadratic, cost.Startup, cost.Shutdown) {
			return nil, unitErr(name, "costs", "non-finite coefficient")
		}
		init, ok := p.InitialStatus[name]
		if !ok {
			return nil, unitErr(name, "initial_status", "missing initial commitment")
		}
		if init != 0 && init != 1 {
			return nil, unitErr(name, "initial_status", fmt.Sprintf("must be 0 or 1, got %d", init))
		}
		units = append(units, Unit{Name: name, Cost: cost, Limits: lim, InitiallyOn: init == 1})
	}
	return units, nil
}

func (p Problem) validateForecast() error {
	f := p.Forecast
	if len(f.Demand) == 0 {
		return intervalErr(-1, "forecast.demand", "empty interval range")
	}
	if len(f.Renewable) != len(f.Demand) {
		return intervalErr(-1, "forecast.renewable",
			fmt.Sprintf("%d values for %d intervals", len(f.Renewable), len(f.Demand)))
	}
	for t := range f.Demand {
		if !finite(f.Demand[t]) {
			return intervalErr(t, "forecast.demand", "non-finite value")
		}
		if !finite(f.Renewable[t]) {
			return intervalErr(t, "forecast.renewable", "non-finite value")
		}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
