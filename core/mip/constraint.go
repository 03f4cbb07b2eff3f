package mip

import "fmt"

// Sense is the relation of a constraint.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// ObjSense selects minimization or maximization.
type ObjSense int

const (
	Minimize ObjSense = iota
	Maximize
)

func (s ObjSense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Constraint is one of Linear, Quadratic or Indicator.
type Constraint interface {
	// ConstraintName returns the unique name of the constraint.
	ConstraintName() string
	vars() []Var
}

// Linear is expr sense rhs.
type Linear struct {
	Name  string
	Expr  LinExpr
	Sense Sense
	RHS   float64
}

func (c Linear) ConstraintName() string { return c.Name }

func (c Linear) vars() []Var {
	vs := make([]Var, len(c.Expr.Terms))
	for i, t := range c.Expr.Terms {
		vs[i] = t.Var
	}
	return vs
}

// Quadratic is expr sense rhs with a quadratic left-hand side.
type Quadratic struct {
	Name  string
	Expr  QuadExpr
	Sense Sense
	RHS   float64
}

func (c Quadratic) ConstraintName() string { return c.Name }

func (c Quadratic) vars() []Var { return c.Expr.Vars() }

// Indicator enforces Body only while the binary Trigger equals Active.
type Indicator struct {
	Name    string
	Trigger Var
	Active  bool
	Body    Linear
}

func (c Indicator) ConstraintName() string { return c.Name }

func (c Indicator) vars() []Var { return append(c.Body.vars(), c.Trigger) }

// TriggerValue returns the binary value that activates the body.
func (c Indicator) TriggerValue() float64 {
	if c.Active {
		return 1
	}
	return 0
}
