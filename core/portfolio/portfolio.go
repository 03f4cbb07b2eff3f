// Package portfolio builds cardinality-constrained mean-variance models:
// minimize the portfolio variance subject to a target expected return and
// a maximum number of held assets.
package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/unitcommit/core/mip"
)

// symmetryTol bounds |cov[i][j] - cov[j][i]|.
const symmetryTol = 1e-9

// ErrData is matched by every invalid data set.
var ErrData = errors.New("invalid portfolio data")

// Data is the input of a portfolio problem.
type Data struct {
	NumAssets      int         `json:"num_assets"`
	Covariance     [][]float64 `json:"covariance"`
	ExpectedReturn []float64   `json:"expected_return"`
	TargetReturn   float64     `json:"target_return"`
	MaxSize        int         `json:"portfolio_max_size"`
}

// Load decodes and validates a JSON data set.
func Load(r io.Reader) (Data, error) {
	var d Data
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return d, fmt.Errorf("decode portfolio: %w", err)
	}
	return d, d.Validate()
}

// Validate checks dimensions and covariance symmetry.
func (d Data) Validate() error {
	n := d.NumAssets
	if n <= 0 {
		return fmt.Errorf("%w: num_assets %d", ErrData, n)
	}
	if len(d.ExpectedReturn) != n {
		return fmt.Errorf("%w: %d expected returns for %d assets", ErrData, len(d.ExpectedReturn), n)
	}
	if len(d.Covariance) != n {
		return fmt.Errorf("%w: covariance has %d rows for %d assets", ErrData, len(d.Covariance), n)
	}
	for i, row := range d.Covariance {
		if len(row) != n {
			return fmt.Errorf("%w: covariance row %d has %d entries", ErrData, i, len(row))
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(d.Covariance[i][j]-d.Covariance[j][i]) > symmetryTol {
				return fmt.Errorf("%w: covariance not symmetric at (%d,%d)", ErrData, i, j)
			}
		}
	}
	if d.MaxSize <= 0 {
		return fmt.Errorf("%w: portfolio_max_size %d", ErrData, d.MaxSize)
	}
	return nil
}

// CovarianceMatrix returns the covariance as a symmetric matrix built from
// the upper triangle.
func (d Data) CovarianceMatrix() *mat.SymDense {
	n := d.NumAssets
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, d.Covariance[i][j])
		}
	}
	return s
}

// Encoding is an encoded data set.
type Encoding struct {
	Model *mip.Model
	Data  Data
	// Weight is the fraction invested in each asset, Held the binary
	// selection gating it.
	Weight []mip.Var
	Held   []mip.Var

	cov *mat.SymDense
}

// Encode builds
//
//	min xᵀΣx  s.t.  μᵀx >= target, Σy <= k, x_i <= y_i, Σx = 1, 0 <= x <= 1, y binary.
func Encode(d Data) (*Encoding, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	n := d.NumAssets
	m := mip.NewModel("portfolio")
	e := &Encoding{Model: m, Data: d, Weight: make([]mip.Var, n), Held: make([]mip.Var, n), cov: d.CovarianceMatrix()}
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		x, err := m.AddVar("x["+idx+"]", mip.Continuous, 0, 1)
		if err != nil {
			return nil, err
		}
		y, err := m.AddVar("y["+idx+"]", mip.Binary, 0, 1)
		if err != nil {
			return nil, err
		}
		e.Weight[i], e.Held[i] = x, y
	}

	// Off-diagonal pairs are merged: cov[i][j]*x_i*x_j + cov[j][i]*x_j*x_i.
	var risk mip.QuadExpr
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := e.cov.At(i, j)
			if i != j {
				c *= 2
			}
			if c != 0 {
				risk.AddQuad(e.Weight[i], e.Weight[j], c)
			}
		}
	}
	if err := m.SetObjective(risk, mip.Minimize); err != nil {
		return nil, err
	}

	var ret mip.LinExpr
	for i, mu := range d.ExpectedReturn {
		ret.AddTerm(e.Weight[i], mu)
	}
	cons := []mip.Linear{
		{Name: "return", Expr: ret, Sense: mip.GreaterEqual, RHS: d.TargetReturn},
		{Name: "max_assets", Expr: mip.Sum(e.Held...), Sense: mip.LessEqual, RHS: float64(d.MaxSize)},
	}
	for i := 0; i < n; i++ {
		var sel mip.LinExpr
		sel.AddTerm(e.Weight[i], 1)
		sel.AddTerm(e.Held[i], -1)
		cons = append(cons, mip.Linear{Name: "selection[" + strconv.Itoa(i) + "]", Expr: sel, Sense: mip.LessEqual})
	}
	cons = append(cons, mip.Linear{Name: "budget", Expr: mip.Sum(e.Weight...), Sense: mip.Equal, RHS: 1})
	for _, c := range cons {
		if err := m.AddConstraint(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Allocation extracts the invested fractions from solver values.
func (e *Encoding) Allocation(values []float64) ([]float64, error) {
	if len(values) != e.Model.NumVars() {
		return nil, fmt.Errorf("%w: %d values for %d variables", mip.ErrDimension, len(values), e.Model.NumVars())
	}
	out := make([]float64, len(e.Weight))
	for i, v := range e.Weight {
		out[i] = values[v]
	}
	return out, nil
}

// Risk returns the variance wᵀΣw of an allocation.
func (e *Encoding) Risk(w []float64) float64 {
	x := mat.NewVecDense(len(w), w)
	return mat.Inner(x, e.cov, x)
}

// Return returns the expected return μᵀw of an allocation.
func (e *Encoding) Return(w []float64) float64 {
	return mat.Dot(mat.NewVecDense(len(w), w), mat.NewVecDense(len(e.Data.ExpectedReturn), e.Data.ExpectedReturn))
}
