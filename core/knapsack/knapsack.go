// Package knapsack builds 0/1 knapsack models: pick items maximizing the
// total value without exceeding the capacity.
package knapsack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/unitcommit/core/mip"
)

// Generated instances draw values from U[1,25] and weights from U[5,100];
// the capacity is 70% of the total weight.
const (
	minValue, maxValue   = 1, 25
	minWeight, maxWeight = 5, 100
	capacityShare        = 0.7
)

// ErrInstance is matched by every invalid instance.
var ErrInstance = errors.New("invalid knapsack instance")

// Instance is a knapsack problem.
type Instance struct {
	Values   []float64 `json:"values"`
	Weights  []float64 `json:"weights"`
	Capacity float64   `json:"capacity"`
}

// Generate draws an instance of n items. The same seed yields the same
// instance.
func Generate(n int, seed uint64) (Instance, error) {
	if n <= 0 {
		return Instance{}, fmt.Errorf("%w: %d items", ErrInstance, n)
	}
	src := rand.NewPCG(seed, seed)
	values := distuv.Uniform{Min: minValue, Max: maxValue, Src: src}
	weights := distuv.Uniform{Min: minWeight, Max: maxWeight, Src: src}
	inst := Instance{Values: make([]float64, n), Weights: make([]float64, n)}
	for i := range inst.Values {
		inst.Values[i] = values.Rand()
	}
	for i := range inst.Weights {
		inst.Weights[i] = weights.Rand()
	}
	inst.Capacity = capacityShare * floats.Sum(inst.Weights)
	return inst, nil
}

// Load decodes a JSON instance.
func Load(r io.Reader) (Instance, error) {
	var inst Instance
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&inst); err != nil {
		return inst, fmt.Errorf("decode knapsack: %w", err)
	}
	return inst, inst.Validate()
}

// Validate checks sizes and signs.
func (in Instance) Validate() error {
	if len(in.Values) == 0 {
		return fmt.Errorf("%w: no items", ErrInstance)
	}
	if len(in.Values) != len(in.Weights) {
		return fmt.Errorf("%w: %d values for %d weights", ErrInstance, len(in.Values), len(in.Weights))
	}
	for i := range in.Values {
		if math.IsNaN(in.Values[i]) || math.IsInf(in.Values[i], 0) {
			return fmt.Errorf("%w: item %d has a non-finite value", ErrInstance, i)
		}
		if in.Weights[i] < 0 || math.IsNaN(in.Weights[i]) || math.IsInf(in.Weights[i], 0) {
			return fmt.Errorf("%w: item %d has weight %g", ErrInstance, i, in.Weights[i])
		}
	}
	if in.Capacity < 0 || math.IsNaN(in.Capacity) {
		return fmt.Errorf("%w: capacity %g", ErrInstance, in.Capacity)
	}
	return nil
}

// Encoding is an encoded instance.
type Encoding struct {
	Model    *mip.Model
	Instance Instance
	Take     []mip.Var
}

// Encode builds max sum(value*x) s.t. sum(weight*x) <= capacity, x binary.
func Encode(in Instance) (*Encoding, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m := mip.NewModel("knapsack")
	e := &Encoding{Model: m, Instance: in, Take: make([]mip.Var, len(in.Values))}
	var obj mip.QuadExpr
	var load mip.LinExpr
	for i := range in.Values {
		v, err := m.AddVar("x["+strconv.Itoa(i)+"]", mip.Binary, 0, 1)
		if err != nil {
			return nil, err
		}
		e.Take[i] = v
		obj.AddTerm(v, in.Values[i])
		load.AddTerm(v, in.Weights[i])
	}
	if err := m.SetObjective(obj, mip.Maximize); err != nil {
		return nil, err
	}
	if err := m.AddConstraint(mip.Linear{Name: "capacity", Expr: load, Sense: mip.LessEqual, RHS: in.Capacity}); err != nil {
		return nil, err
	}
	return e, nil
}

// Selection lists the items taken in values, with their total value and
// weight.
func (e *Encoding) Selection(values []float64) (items []int, value, weight float64, err error) {
	if len(values) != e.Model.NumVars() {
		return nil, 0, 0, fmt.Errorf("%w: %d values for %d variables", mip.ErrDimension, len(values), e.Model.NumVars())
	}
	for i, v := range e.Take {
		if values[v] > 0.5 {
			items = append(items, i)
			value += e.Instance.Values[i]
			weight += e.Instance.Weights[i]
		}
	}
	return items, value, weight, nil
}
