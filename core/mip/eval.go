package mip

import (
	"fmt"
	"math"
)

// Evaluate returns the objective value of the assignment x.
func (m *Model) Evaluate(x []float64) (float64, error) {
	if len(x) != len(m.vars) {
		return 0, fmt.Errorf("%w: %d values for %d variables", ErrDimension, len(x), len(m.vars))
	}
	return m.objective.Value(x), nil
}

// Violation describes an unsatisfied bound, integrality requirement or
// constraint of an assignment.
type Violation struct {
	Name   string
	Amount float64
}

func (v Violation) String() string { return fmt.Sprintf("%s violated by %g", v.Name, v.Amount) }

// Violations checks x against every bound, integrality requirement and
// constraint with absolute tolerance tol. Indicator bodies are only checked
// when the trigger is within tol of the active value; a fractional trigger
// is reported once, as an integrality violation.
func (m *Model) Violations(x []float64, tol float64) ([]Violation, error) {
	if len(x) != len(m.vars) {
		return nil, fmt.Errorf("%w: %d values for %d variables", ErrDimension, len(x), len(m.vars))
	}
	var out []Violation
	add := func(name string, amount float64) {
		if amount > tol || math.IsNaN(amount) {
			out = append(out, Violation{Name: name, Amount: amount})
		}
	}
	for i, v := range m.vars {
		add(v.Name+".lb", v.Lower-x[i])
		add(v.Name+".ub", x[i]-v.Upper)
		if v.Type != Continuous {
			add(v.Name+".int", math.Abs(x[i]-math.Round(x[i])))
		}
	}
	for _, c := range m.constraints {
		switch c := c.(type) {
		case Linear:
			add(c.Name, excess(c.Expr.Value(x), c.Sense, c.RHS))
		case Quadratic:
			add(c.Name, excess(c.Expr.Value(x), c.Sense, c.RHS))
		case Indicator:
			if math.Abs(x[c.Trigger]-c.TriggerValue()) <= tol {
				add(c.Name, excess(c.Body.Expr.Value(x), c.Body.Sense, c.Body.RHS))
			}
		}
	}
	return out, nil
}

// excess returns how far lhs is on the wrong side of rhs; zero or negative
// means satisfied.
func excess(lhs float64, s Sense, rhs float64) float64 {
	switch s {
	case LessEqual:
		return lhs - rhs
	case GreaterEqual:
		return rhs - lhs
	default:
		return math.Abs(lhs - rhs)
	}
}
