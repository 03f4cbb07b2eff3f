package mip

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// LinExpr is an affine expression sum(coef*var) + constant.
type LinExpr struct {
	Terms    []Term
	Constant float64
}

// AddTerm appends coef*v.
func (e *LinExpr) AddTerm(v Var, coef float64) {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddConstant adds c to the constant part.
func (e *LinExpr) AddConstant(c float64) { e.Constant += c }

// AddExpr adds scale*o to e.
func (e *LinExpr) AddExpr(o LinExpr, scale float64) {
	for _, t := range o.Terms {
		e.Terms = append(e.Terms, Term{Var: t.Var, Coef: scale * t.Coef})
	}
	e.Constant += scale * o.Constant
}

// Value evaluates the expression on the assignment x.
func (e LinExpr) Value(x []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		v += t.Coef * x[t.Var]
	}
	return v
}

// Sum returns the expression sum(vars).
func Sum(vars ...Var) LinExpr {
	e := LinExpr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.AddTerm(v, 1)
	}
	return e
}

// QuadTerm is coef*I*J. I == J encodes a square.
type QuadTerm struct {
	I, J Var
	Coef float64
}

// QuadExpr is a quadratic expression made of a linear part and products.
type QuadExpr struct {
	Linear LinExpr
	Quad   []QuadTerm
}

// AddTerm appends coef*v to the linear part.
func (q *QuadExpr) AddTerm(v Var, coef float64) { q.Linear.AddTerm(v, coef) }

// AddQuad appends coef*i*j.
func (q *QuadExpr) AddQuad(i, j Var, coef float64) {
	q.Quad = append(q.Quad, QuadTerm{I: i, J: j, Coef: coef})
}

// Value evaluates the expression on the assignment x.
func (q QuadExpr) Value(x []float64) float64 {
	v := q.Linear.Value(x)
	for _, t := range q.Quad {
		v += t.Coef * x[t.I] * x[t.J]
	}
	return v
}

// Vars lists every variable referenced by the expression, duplicates included.
func (q QuadExpr) Vars() []Var {
	vs := make([]Var, 0, len(q.Linear.Terms)+2*len(q.Quad))
	for _, t := range q.Linear.Terms {
		vs = append(vs, t.Var)
	}
	for _, t := range q.Quad {
		vs = append(vs, t.I, t.J)
	}
	return vs
}
