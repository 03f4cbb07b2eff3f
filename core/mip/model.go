package mip

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDuplicateVar is returned when a variable name is reused.
	ErrDuplicateVar = errors.New("duplicate variable")
	// ErrDuplicateConstraint is returned when a constraint name is reused.
	ErrDuplicateConstraint = errors.New("duplicate constraint")
	// ErrUnknownVar is returned when an expression references a variable
	// that does not belong to the model.
	ErrUnknownVar = errors.New("unknown variable")
	// ErrBounds is returned for empty or NaN variable bounds.
	ErrBounds = errors.New("invalid bounds")
	// ErrTrigger is returned when an indicator is gated by a non-binary variable.
	ErrTrigger = errors.New("indicator trigger must be binary")
	// ErrDimension is returned when vector or matrix sizes do not match.
	ErrDimension = errors.New("dimension mismatch")
)

// Model is the full description of an optimization problem. It is built
// once, handed to a single solve and not mutated afterwards.
type Model struct {
	name        string
	vars        []VarInfo
	byName      map[string]Var
	constraints []Constraint
	conNames    map[string]struct{}
	objective   QuadExpr
	sense       ObjSense
}

// NewModel returns an empty minimization model.
func NewModel(name string) *Model {
	return &Model{
		name:     name,
		byName:   make(map[string]Var),
		conNames: make(map[string]struct{}),
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// AddVar creates a variable. Binary variables always get the bounds [0, 1].
func (m *Model) AddVar(name string, t VarType, lb, ub float64) (Var, error) {
	if name == "" {
		return -1, fmt.Errorf("%w: empty name", ErrDuplicateVar)
	}
	if _, ok := m.byName[name]; ok {
		return -1, fmt.Errorf("%w: %s", ErrDuplicateVar, name)
	}
	if t == Binary {
		lb, ub = 0, 1
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || lb > ub {
		return -1, fmt.Errorf("%w: %s [%g, %g]", ErrBounds, name, lb, ub)
	}
	v := Var(len(m.vars))
	m.vars = append(m.vars, VarInfo{Name: name, Type: t, Lower: lb, Upper: ub})
	m.byName[name] = v
	return v, nil
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// VarInfo returns the descriptor of v.
func (m *Model) VarInfo(v Var) VarInfo { return m.vars[v] }

// Vars returns a copy of all variable descriptors indexed by Var.
func (m *Model) Vars() []VarInfo {
	out := make([]VarInfo, len(m.vars))
	copy(out, m.vars)
	return out
}

// Lookup finds a variable by name.
func (m *Model) Lookup(name string) (Var, bool) {
	v, ok := m.byName[name]
	return v, ok
}

func (m *Model) checkVars(vs []Var) error {
	for _, v := range vs {
		if v < 0 || int(v) >= len(m.vars) {
			return fmt.Errorf("%w: %d", ErrUnknownVar, v)
		}
	}
	return nil
}

// AddConstraint validates and appends c.
func (m *Model) AddConstraint(c Constraint) error {
	name := c.ConstraintName()
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrDuplicateConstraint)
	}
	if _, ok := m.conNames[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateConstraint, name)
	}
	if err := m.checkVars(c.vars()); err != nil {
		return fmt.Errorf("constraint %s: %w", name, err)
	}
	if ind, ok := c.(Indicator); ok && m.vars[ind.Trigger].Type != Binary {
		return fmt.Errorf("constraint %s: %w", name, ErrTrigger)
	}
	m.conNames[name] = struct{}{}
	m.constraints = append(m.constraints, c)
	return nil
}

// Constraints returns the constraints in insertion order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	copy(out, m.constraints)
	return out
}

// NumConstraints returns the number of constraints of every kind.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// SetObjective replaces the objective.
func (m *Model) SetObjective(e QuadExpr, s ObjSense) error {
	if err := m.checkVars(e.Vars()); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = e
	m.sense = s
	return nil
}

// Objective returns the objective expression and its sense.
func (m *Model) Objective() (QuadExpr, ObjSense) { return m.objective, m.sense }

// Stats counts variables and constraints by kind.
type Stats struct {
	Continuous int
	Binary     int
	Integer    int
	Linear     int
	Quadratic  int
	Indicator  int
}

// Stats summarizes the model size.
func (m *Model) Stats() Stats {
	var s Stats
	for _, v := range m.vars {
		switch v.Type {
		case Continuous:
			s.Continuous++
		case Binary:
			s.Binary++
		case Integer:
			s.Integer++
		}
	}
	for _, c := range m.constraints {
		switch c.(type) {
		case Linear:
			s.Linear++
		case Quadratic:
			s.Quadratic++
		case Indicator:
			s.Indicator++
		}
	}
	return s
}

// Fields renders the stats for structured logging.
func (s Stats) Fields() map[string]any {
	return map[string]any{
		"continuous": s.Continuous,
		"binary":     s.Binary,
		"integer":    s.Integer,
		"linear":     s.Linear,
		"quadratic":  s.Quadratic,
		"indicator":  s.Indicator,
	}
}
