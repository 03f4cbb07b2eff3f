package model

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func validProblem() Problem {
	return Problem{
		Name:  "p",
		Units: []string{"gen1", "gen2"},
		Costs: map[string]CostCurve{
			"gen1": {Fixed: 5, Linear: 0.5, Quadratic: 1, Startup: 2, Shutdown: 1},
			"gen2": {Fixed: 5, Linear: 0.5, Quadratic: 0.5, Startup: 2, Shutdown: 1},
		},
		Limits:        map[string]Limits{"gen1": {Min: 1.5, Max: 5}, "gen2": {Min: 2.5, Max: 10}},
		InitialStatus: map[string]int{"gen1": 0, "gen2": 1},
		Forecast:      Forecast{Demand: []float64{4, 6}, Renewable: []float64{0, 1}},
	}
}

func TestResolveUnits(t *testing.T) {
	units, err := validProblem().ResolveUnits()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(units) != 2 || units[0].Name != "gen1" || units[1].Name != "gen2" {
		t.Fatalf("unexpected units %+v", units)
	}
	if units[0].InitiallyOn || !units[1].InitiallyOn {
		t.Fatalf("initial status not resolved: %+v", units)
	}
}

func TestResolveUnits_ConfigErrors(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Problem)
		unit     string
		param    string
		interval int
	}{
		{"missing cost", func(p *Problem) { delete(p.Costs, "gen2") }, "gen2", "costs", -1},
		{"missing limits", func(p *Problem) { delete(p.Limits, "gen1") }, "gen1", "limits", -1},
		{"missing initial", func(p *Problem) { delete(p.InitialStatus, "gen1") }, "gen1", "initial_status", -1},
		{"bad initial", func(p *Problem) { p.InitialStatus["gen1"] = 2 }, "gen1", "initial_status", -1},
		{"inverted limits", func(p *Problem) { p.Limits["gen1"] = Limits{Min: 6, Max: 5} }, "gen1", "limits", -1},
		{"no units", func(p *Problem) { p.Units = nil }, "", "units", -1},
		{"duplicate unit", func(p *Problem) { p.Units = []string{"gen1", "gen1"} }, "gen1", "units", -1},
		{"empty horizon", func(p *Problem) { p.Forecast = Forecast{} }, "", "forecast.demand", -1},
		{"renewable length", func(p *Problem) { p.Forecast.Renewable = []float64{0} }, "", "forecast.renewable", -1},
		{"nan demand", func(p *Problem) { p.Forecast.Demand[1] = math.NaN() }, "", "forecast.demand", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProblem()
			tc.mutate(&p)
			_, err := p.ResolveUnits()
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Unit != tc.unit || ce.Param != tc.param || ce.Interval != tc.interval {
				t.Fatalf("unexpected error context %+v", ce)
			}
		})
	}
}

// Negative quadratic coefficients are passed through to the solver.
func TestResolveUnits_NonConvexPassThrough(t *testing.T) {
	p := validProblem()
	p.Costs["gen1"] = CostCurve{Quadratic: -1}
	if _, err := p.ResolveUnits(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestLoadProblem_YAML(t *testing.T) {
	p, err := LoadProblem("testdata/three_units.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Horizon() != 4 || len(p.Units) != 3 {
		t.Fatalf("unexpected problem %+v", p)
	}
	if p.Limits["gen2"].Max != 10 || p.Costs["gen3"].Linear != 3 {
		t.Fatalf("parameters not decoded: %+v", p)
	}
	if _, err := p.ResolveUnits(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

func TestDecodeProblem_JSONAndErrors(t *testing.T) {
	src := `{"name":"j","units":["a"],"costs":{"a":{"fixed":1}},"limits":{"a":{"min":0,"max":1}},
"initial_status":{"a":1},"forecast":{"demand":[1],"renewable":[0]}}`
	p, err := DecodeProblem(strings.NewReader(src), "json")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.InitialStatus["a"] != 1 || p.Costs["a"].Fixed != 1 {
		t.Fatalf("unexpected %+v", p)
	}
	if _, err := DecodeProblem(strings.NewReader(`{"unknown":1}`), "json"); err == nil {
		t.Fatal("expected unknown field error")
	}
	if _, err := DecodeProblem(strings.NewReader(""), "toml"); err == nil {
		t.Fatal("expected format error")
	}
}

func TestUnitIntervalCost(t *testing.T) {
	u := Unit{Cost: CostCurve{Fixed: 5, Linear: 0.5, Quadratic: 2, Startup: 2, Shutdown: 1}}
	if got := u.IntervalCost(true, 2, true, false); got != 5+1+8+2 {
		t.Fatalf("unexpected cost %v", got)
	}
	if got := u.IntervalCost(false, 0, false, true); got != 1 {
		t.Fatalf("unexpected cost %v", got)
	}
}
