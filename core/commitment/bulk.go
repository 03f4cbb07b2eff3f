package commitment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/unitcommit/core/mip"
	"github.com/kilianp07/unitcommit/core/model"
)

// EncodeBulk builds the model over whole index ranges: variables are created
// as unit x interval blocks, costs and limits are broadcast into coefficient
// grids, and linear constraints are expressed as matrix rows.
func EncodeBulk(p model.Problem) (*Encoding, error) {
	units, err := p.ResolveUnits()
	if err != nil {
		return nil, err
	}
	b := &bulk{
		m:      mip.NewModel(modelName(p)),
		enc:    &Encoding{Style: Bulk, Units: units, Forecast: p.Forecast},
		rows:   unitNames(units),
		cols:   p.IntervalLabels(),
		G:      len(units),
		T:      p.Horizon(),
		params: newParamVectors(units),
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

type paramVectors struct {
	fixed, linear, quadratic, startup, shutdown *mat.VecDense
	pmin, pmax, initial                         *mat.VecDense
}

func newParamVectors(units []model.Unit) paramVectors {
	g := len(units)
	pv := paramVectors{
		fixed: mat.NewVecDense(g, nil), linear: mat.NewVecDense(g, nil), quadratic: mat.NewVecDense(g, nil),
		startup: mat.NewVecDense(g, nil), shutdown: mat.NewVecDense(g, nil),
		pmin: mat.NewVecDense(g, nil), pmax: mat.NewVecDense(g, nil), initial: mat.NewVecDense(g, nil),
	}
	for i, u := range units {
		pv.fixed.SetVec(i, u.Cost.Fixed)
		pv.linear.SetVec(i, u.Cost.Linear)
		pv.quadratic.SetVec(i, u.Cost.Quadratic)
		pv.startup.SetVec(i, u.Cost.Startup)
		pv.shutdown.SetVec(i, u.Cost.Shutdown)
		pv.pmin.SetVec(i, u.Limits.Min)
		pv.pmax.SetVec(i, u.Limits.Max)
		pv.initial.SetVec(i, u.InitialStatus())
	}
	return pv
}

type bulk struct {
	m          *mip.Model
	enc        *Encoding
	rows, cols []string
	G, T       int
	params     paramVectors

	output, committed, startup, shutdown mip.Block
}

func ones(n int) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, 1)
	}
	return v
}

func identity(n int) *mat.DiagDense { return mat.NewDiagDense(n, ones(n).RawVector().Data) }

// broadcast returns the unit x interval grid whose row g is filled with v[g].
func (b *bulk) broadcast(v mat.Vector) *mat.Dense {
	var grid mat.Dense
	grid.Outer(1, v, ones(b.T))
	return &grid
}

func (b *bulk) variables() error {
	var err error
	if b.output, err = b.m.AddBlock(VarOutput, b.rows, b.cols, mip.Continuous, 0, mip.Inf); err != nil {
		return err
	}
	if b.committed, err = b.m.AddBlock(VarCommitted, b.rows, b.cols, mip.Binary, 0, 1); err != nil {
		return err
	}
	if b.startup, err = b.m.AddBlock(VarStartup, b.rows, b.cols, mip.Binary, 0, 1); err != nil {
		return err
	}
	if b.shutdown, err = b.m.AddBlock(VarShutdown, b.rows, b.cols, mip.Binary, 0, 1); err != nil {
		return err
	}
	b.enc.Output = gridFromBlock(b.output)
	b.enc.Committed = gridFromBlock(b.committed)
	b.enc.Startup = gridFromBlock(b.startup)
	b.enc.Shutdown = gridFromBlock(b.shutdown)
	return nil
}

func (b *bulk) objective() error {
	var obj mip.QuadExpr
	terms := []struct {
		block  mip.Block
		coef   mat.Vector
		square bool
	}{
		{b.output, b.params.quadratic, true},
		{b.output, b.params.linear, false},
		{b.committed, b.params.fixed, false},
		{b.startup, b.params.startup, false},
		{b.shutdown, b.params.shutdown, false},
	}
	for _, term := range terms {
		grid := b.broadcast(term.coef)
		var err error
		if term.square {
			err = obj.AddBlockSquares(term.block, grid)
		} else {
			err = obj.AddBlockLinear(term.block, grid)
		}
		if err != nil {
			return err
		}
	}
	return b.m.SetObjective(obj, mip.Minimize)
}

// powerBalance adds (1ᵀ ⊗ I_T)·output + renewable = demand in one call.
func (b *bulk) powerBalance() error {
	var sumUnits mat.Dense
	sumUnits.Kronecker(mat.NewDense(1, b.G, ones(b.G).RawVector().Data), identity(b.T))

	var rhs mat.VecDense
	rhs.SubVec(mat.NewVecDense(b.T, b.enc.Forecast.Demand), mat.NewVecDense(b.T, b.enc.Forecast.Renewable))
	return b.m.AddMatrixConstraints("power_balance", &sumUnits, b.output.Vars(), mip.Equal, &rhs)
}

// transitions adds, over all units at once,
//
//	[I_G ⊗ D | -(I_G ⊗ S) | I_G ⊗ S]·[committed; startup; shutdown] = 0
//
// for intervals 1..T-1 (D takes consecutive differences, S selects
// intervals 1..T-1), the initial status rows for interval 0 and
// [I | I]·[startup; shutdown] <= 1 over every (unit, interval).
func (b *bulk) transitions() error {
	units := identity(b.G)
	if b.T > 1 {
		diff := mat.NewDense(b.T-1, b.T, nil)
		shift := mat.NewDense(b.T-1, b.T, nil)
		for i := 0; i < b.T-1; i++ {
			diff.Set(i, i, -1)
			diff.Set(i, i+1, 1)
			shift.Set(i, i+1, 1)
		}
		var allDiff, allShift, negShift, left, a mat.Dense
		allDiff.Kronecker(units, diff)
		allShift.Kronecker(units, shift)
		negShift.Scale(-1, &allShift)
		left.Augment(&allDiff, &negShift)
		a.Augment(&left, &allShift)
		cols := concat(b.committed.Vars(), b.startup.Vars(), b.shutdown.Vars())
		zeros := mat.NewVecDense(b.G*(b.T-1), nil)
		if err := b.m.AddMatrixConstraints("logical_status_diff", &a, cols, mip.Equal, zeros); err != nil {
			return err
		}
	}

	var negEye, left, initial mat.Dense
	negEye.Scale(-1, units)
	left.Augment(units, &negEye)
	initial.Augment(&left, units)
	cols := concat(b.committed.Col(0), b.startup.Col(0), b.shutdown.Col(0))
	if err := b.m.AddMatrixConstraints("initial_status", &initial, cols, mip.Equal, b.params.initial); err != nil {
		return err
	}

	n := b.G * b.T
	var exclusive mat.Dense
	exclusive.Augment(identity(n), identity(n))
	pairs := concat(b.startup.Vars(), b.shutdown.Vars())
	return b.m.AddMatrixConstraints("no_simultaneous_startup_shutdown", &exclusive, pairs, mip.LessEqual, ones(n))
}

func (b *bulk) limits() error {
	if err := b.m.AddIndicatorBlock("min_power", b.committed, true, b.output, mip.GreaterEqual, b.broadcast(b.params.pmin)); err != nil {
		return err
	}
	if err := b.m.AddIndicatorBlock("max_power", b.committed, true, b.output, mip.LessEqual, b.broadcast(b.params.pmax)); err != nil {
		return err
	}
	return b.m.AddIndicatorBlock("zero_power", b.committed, false, b.output, mip.Equal, mat.NewDense(b.G, b.T, nil))
}

func concat(parts ...[]mip.Var) []mip.Var {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]mip.Var, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
