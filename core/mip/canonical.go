package mip

import (
	"sort"
	"strconv"
	"strings"
)

// Canonical is a name-based normal form of a model. Two models describe the
// same feasible region and objective when their Canonical values are equal,
// whatever the order in which variables and constraints were created and
// whatever the constraint names.
type Canonical struct {
	Sense       ObjSense
	Vars        []VarInfo
	Objective   string
	Constraints []string
}

// Canonical computes the normal form of m.
func (m *Model) Canonical() Canonical {
	vars := m.Vars()
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	cons := make([]string, 0, len(m.constraints))
	for _, c := range m.constraints {
		cons = append(cons, m.canonicalConstraint(c))
	}
	sort.Strings(cons)
	return Canonical{
		Sense:       m.sense,
		Vars:        vars,
		Objective:   m.canonicalQuad(m.objective),
		Constraints: cons,
	}
}

type namedCoef struct {
	name string
	coef float64
}

func fmtNum(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(v, 'g', 12, 64)
}

func (m *Model) mergeLinear(e LinExpr) []namedCoef {
	acc := make(map[string]float64, len(e.Terms))
	for _, t := range e.Terms {
		acc[m.vars[t.Var].Name] += t.Coef
	}
	out := make([]namedCoef, 0, len(acc))
	for n, c := range acc {
		if c != 0 {
			out = append(out, namedCoef{name: n, coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (m *Model) mergeQuad(q []QuadTerm) []namedCoef {
	acc := make(map[string]float64, len(q))
	for _, t := range q {
		a, b := m.vars[t.I].Name, m.vars[t.J].Name
		if b < a {
			a, b = b, a
		}
		acc[a+"*"+b] += t.Coef
	}
	out := make([]namedCoef, 0, len(acc))
	for n, c := range acc {
		if c != 0 {
			out = append(out, namedCoef{name: n, coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func writeTerms(sb *strings.Builder, terms []namedCoef, scale float64) {
	for _, t := range terms {
		sb.WriteString(" ")
		sb.WriteString(fmtNum(scale * t.coef))
		sb.WriteString(" ")
		sb.WriteString(t.name)
	}
}

func (m *Model) canonicalQuad(q QuadExpr) string {
	var sb strings.Builder
	writeTerms(&sb, m.mergeLinear(q.Linear), 1)
	writeTerms(&sb, m.mergeQuad(q.Quad), 1)
	if q.Linear.Constant != 0 {
		sb.WriteString(" + ")
		sb.WriteString(fmtNum(q.Linear.Constant))
	}
	return strings.TrimSpace(sb.String())
}

// canonicalLinear moves the constant to the right-hand side, turns >= into
// <= and fixes the sign of equalities so that the first coefficient is
// positive.
func (m *Model) canonicalLinear(e LinExpr, s Sense, rhs float64) string {
	terms := m.mergeLinear(e)
	rhs -= e.Constant
	scale := 1.0
	switch {
	case s == GreaterEqual:
		scale, s = -1, LessEqual
	case s == Equal && len(terms) > 0 && terms[0].coef < 0:
		scale = -1
	}
	var sb strings.Builder
	writeTerms(&sb, terms, scale)
	sb.WriteString(" ")
	sb.WriteString(s.String())
	sb.WriteString(" ")
	sb.WriteString(fmtNum(scale * rhs))
	return strings.TrimSpace(sb.String())
}

func (m *Model) canonicalConstraint(c Constraint) string {
	switch c := c.(type) {
	case Linear:
		return "lin: " + m.canonicalLinear(c.Expr, c.Sense, c.RHS)
	case Quadratic:
		quad := c.Expr
		quad.Linear.Constant = 0
		return "quad: " + m.canonicalQuad(quad) + " " + c.Sense.String() + " " + fmtNum(c.RHS-c.Expr.Linear.Constant)
	case Indicator:
		return "ind: " + m.vars[c.Trigger].Name + "=" + fmtNum(c.TriggerValue()) + " -> " +
			m.canonicalLinear(c.Body.Expr, c.Body.Sense, c.Body.RHS)
	default:
		return ""
	}
}
