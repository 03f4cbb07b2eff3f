package knapsack

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// simplex solves the standard form LP. Tests replace it to simulate solver
// failures.
var simplex = lp.Simplex

// RelaxationBound solves the LP relaxation (0 <= x <= 1) with the simplex
// method. The returned value is an upper bound on every selection and the
// returned fractions are the relaxed take levels per item.
func (in Instance) RelaxationBound() (float64, []float64, error) {
	if err := in.Validate(); err != nil {
		return 0, nil, err
	}
	n := len(in.Values)
	// Columns: x[0..n), capacity slack, one slack per upper bound.
	cols := 2*n + 1
	c := make([]float64, cols)
	A := mat.NewDense(n+1, cols, nil)
	b := make([]float64, n+1)
	for i := range in.Values {
		c[i] = -in.Values[i]
		A.Set(0, i, in.Weights[i])
		A.Set(i+1, i, 1)
		A.Set(i+1, n+1+i, 1)
		b[i+1] = 1
	}
	A.Set(0, n, 1)
	b[0] = in.Capacity

	opt, x, err := simplex(c, A, b, 1e-7, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("lp relaxation: %w", err)
	}
	return -opt, x[:n], nil
}
