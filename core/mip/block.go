package mip

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Block is a rows x cols array of variables created in one call, stored in
// row-major order.
type Block struct {
	Name      string
	RowLabels []string
	ColLabels []string
	vars      []Var
}

// Dims returns the block shape.
func (b Block) Dims() (rows, cols int) { return len(b.RowLabels), len(b.ColLabels) }

// At returns the variable at (i, j).
func (b Block) At(i, j int) Var { return b.vars[i*len(b.ColLabels)+j] }

// Vars returns all variables in row-major order.
func (b Block) Vars() []Var {
	out := make([]Var, len(b.vars))
	copy(out, b.vars)
	return out
}

// Row returns the variables of row i.
func (b Block) Row(i int) []Var {
	c := len(b.ColLabels)
	out := make([]Var, c)
	copy(out, b.vars[i*c:(i+1)*c])
	return out
}

// Col returns the variables of column j.
func (b Block) Col(j int) []Var {
	r, c := b.Dims()
	out := make([]Var, r)
	for i := 0; i < r; i++ {
		out[i] = b.vars[i*c+j]
	}
	return out
}

// AddBlock creates len(rows) x len(cols) variables named name[row,col].
func (m *Model) AddBlock(name string, rows, cols []string, t VarType, lb, ub float64) (Block, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return Block{}, fmt.Errorf("block %s: %w: empty shape", name, ErrDimension)
	}
	b := Block{
		Name:      name,
		RowLabels: append([]string(nil), rows...),
		ColLabels: append([]string(nil), cols...),
		vars:      make([]Var, 0, len(rows)*len(cols)),
	}
	for _, r := range rows {
		for _, c := range cols {
			v, err := m.AddVar(ElementName(name, r, c), t, lb, ub)
			if err != nil {
				return Block{}, err
			}
			b.vars = append(b.vars, v)
		}
	}
	return b, nil
}

// AddMatrixConstraints adds the rows of A·cols sense rhs as linear
// constraints named prefix[r]. Zero coefficients are skipped.
func (m *Model) AddMatrixConstraints(prefix string, a mat.Matrix, cols []Var, s Sense, rhs mat.Vector) error {
	r, c := a.Dims()
	if c != len(cols) || rhs.Len() != r {
		return fmt.Errorf("%s: %w: A is %dx%d, %d columns, rhs %d", prefix, ErrDimension, r, c, len(cols), rhs.Len())
	}
	for i := 0; i < r; i++ {
		var e LinExpr
		for j := 0; j < c; j++ {
			if v := a.At(i, j); v != 0 {
				e.AddTerm(cols[j], v)
			}
		}
		name := fmt.Sprintf("%s[%d]", prefix, i)
		if err := m.AddConstraint(Linear{Name: name, Expr: e, Sense: s, RHS: rhs.AtVec(i)}); err != nil {
			return err
		}
	}
	return nil
}

// AddIndicatorBlock adds, for every element (i, j), the indicator
// trigger[i,j] = active -> x[i,j] sense rhs[i,j].
func (m *Model) AddIndicatorBlock(prefix string, trigger Block, active bool, x Block, s Sense, rhs mat.Matrix) error {
	tr, tc := trigger.Dims()
	xr, xc := x.Dims()
	rr, rc := rhs.Dims()
	if tr != xr || tc != xc || rr != xr || rc != xc {
		return fmt.Errorf("%s: %w", prefix, ErrDimension)
	}
	for i := 0; i < xr; i++ {
		for j := 0; j < xc; j++ {
			var body LinExpr
			body.AddTerm(x.At(i, j), 1)
			c := Indicator{
				Name:    ElementName(prefix, x.RowLabels[i], x.ColLabels[j]),
				Trigger: trigger.At(i, j),
				Active:  active,
				Body:    Linear{Expr: body, Sense: s, RHS: rhs.At(i, j)},
			}
			if err := m.AddConstraint(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddBlockLinear adds coef[i,j]*b[i,j] for every element to the linear part.
func (q *QuadExpr) AddBlockLinear(b Block, coef mat.Matrix) error {
	return eachElement(b, coef, func(v Var, c float64) { q.AddTerm(v, c) })
}

// AddBlockSquares adds coef[i,j]*b[i,j]^2 for every element.
func (q *QuadExpr) AddBlockSquares(b Block, coef mat.Matrix) error {
	return eachElement(b, coef, func(v Var, c float64) { q.AddQuad(v, v, c) })
}

func eachElement(b Block, coef mat.Matrix, fn func(Var, float64)) error {
	br, bc := b.Dims()
	cr, cc := coef.Dims()
	if br != cr || bc != cc {
		return fmt.Errorf("block %s: %w", b.Name, ErrDimension)
	}
	for i := 0; i < br; i++ {
		for j := 0; j < bc; j++ {
			fn(b.At(i, j), coef.At(i, j))
		}
	}
	return nil
}
