package commitment

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/unitcommit/core/mip"
	"github.com/kilianp07/unitcommit/core/model"
)

// EncodeElementwise builds the model with one variable and one constraint
// per index tuple.
func EncodeElementwise(p model.Problem) (*Encoding, error) {
	units, err := p.ResolveUnits()
	if err != nil {
		return nil, err
	}
	b := elementwise{
		m:   mip.NewModel(modelName(p)),
		enc: &Encoding{Style: Elementwise, Units: units, Forecast: p.Forecast},
		T:   p.Horizon(),
	}
	b.enc.Model = b.m
	steps := []func() error{b.variables, b.objective, b.powerBalance, b.transitions, b.limits}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return b.enc, nil
}

type elementwise struct {
	m   *mip.Model
	enc *Encoding
	T   int
}

func (b *elementwise) variables() error {
	families := []struct {
		name string
		typ  mip.VarType
		ub   float64
		grid *Grid
	}{
		{VarOutput, mip.Continuous, mip.Inf, &b.enc.Output},
		{VarCommitted, mip.Binary, 1, &b.enc.Committed},
		{VarStartup, mip.Binary, 1, &b.enc.Startup},
		{VarShutdown, mip.Binary, 1, &b.enc.Shutdown},
	}
	for _, f := range families {
		grid := make(Grid, len(b.enc.Units))
		for g, u := range b.enc.Units {
			grid[g] = make([]mip.Var, b.T)
			for t := 0; t < b.T; t++ {
				v, err := b.m.AddVar(mip.ElementName(f.name, u.Name, strconv.Itoa(t)), f.typ, 0, f.ub)
				if err != nil {
					return err
				}
				grid[g][t] = v
			}
		}
		*f.grid = grid
	}
	return nil
}

func (b *elementwise) objective() error {
	var obj mip.QuadExpr
	e := b.enc
	for t := 0; t < b.T; t++ {
		for g, u := range e.Units {
			p := e.Output.At(g, t)
			obj.AddTerm(e.Committed.At(g, t), u.Cost.Fixed)
			obj.AddTerm(p, u.Cost.Linear)
			obj.AddQuad(p, p, u.Cost.Quadratic)
			obj.AddTerm(e.Startup.At(g, t), u.Cost.Startup)
			obj.AddTerm(e.Shutdown.At(g, t), u.Cost.Shutdown)
		}
	}
	return b.m.SetObjective(obj, mip.Minimize)
}

// powerBalance adds sum_g output[g,t] + renewable[t] = demand[t].
func (b *elementwise) powerBalance() error {
	e := b.enc
	for t := 0; t < b.T; t++ {
		var expr mip.LinExpr
		for g := range e.Units {
			expr.AddTerm(e.Output.At(g, t), 1)
		}
		expr.AddConstant(e.Forecast.Renewable[t])
		c := mip.Linear{
			Name:  fmt.Sprintf("power_balance_%d", t),
			Expr:  expr,
			Sense: mip.Equal,
			RHS:   e.Forecast.Demand[t],
		}
		if err := b.m.AddConstraint(c); err != nil {
			return err
		}
	}
	return nil
}

// transitions adds committed[t] - committed[t-1] = startup[t] - shutdown[t],
// using the initial status before interval 0, and startup + shutdown <= 1.
func (b *elementwise) transitions() error {
	e := b.enc
	for t := 0; t < b.T; t++ {
		for g, u := range e.Units {
			var diff mip.LinExpr
			diff.AddTerm(e.Committed.At(g, t), 1)
			if t == 0 {
				diff.AddConstant(-u.InitialStatus())
			} else {
				diff.AddTerm(e.Committed.At(g, t-1), -1)
			}
			diff.AddTerm(e.Startup.At(g, t), -1)
			diff.AddTerm(e.Shutdown.At(g, t), 1)
			logical := mip.Linear{
				Name:  fmt.Sprintf("logical1_%s_%d", u.Name, t),
				Expr:  diff,
				Sense: mip.Equal,
			}
			if err := b.m.AddConstraint(logical); err != nil {
				return err
			}
			exclusive := mip.Linear{
				Name:  fmt.Sprintf("logical2_%s_%d", u.Name, t),
				Expr:  mip.Sum(e.Startup.At(g, t), e.Shutdown.At(g, t)),
				Sense: mip.LessEqual,
				RHS:   1,
			}
			if err := b.m.AddConstraint(exclusive); err != nil {
				return err
			}
		}
	}
	return nil
}

// limits gates the output range on the commitment status.
func (b *elementwise) limits() error {
	e := b.enc
	for t := 0; t < b.T; t++ {
		for g, u := range e.Units {
			p, on := e.Output.At(g, t), e.Committed.At(g, t)
			inds := []mip.Indicator{
				{Name: fmt.Sprintf("min_power_%s_%d", u.Name, t), Trigger: on, Active: true,
					Body: mip.Linear{Expr: mip.Sum(p), Sense: mip.GreaterEqual, RHS: u.Limits.Min}},
				{Name: fmt.Sprintf("max_power_%s_%d", u.Name, t), Trigger: on, Active: true,
					Body: mip.Linear{Expr: mip.Sum(p), Sense: mip.LessEqual, RHS: u.Limits.Max}},
				{Name: fmt.Sprintf("zero_power_%s_%d", u.Name, t), Trigger: on, Active: false,
					Body: mip.Linear{Expr: mip.Sum(p), Sense: mip.Equal, RHS: 0}},
			}
			for _, c := range inds {
				if err := b.m.AddConstraint(c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
