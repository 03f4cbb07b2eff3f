package mip

import (
	"fmt"
	"math"
)

// VarType is the domain of a decision variable.
type VarType int

const (
	Continuous VarType = iota
	Binary
	Integer
)

func (t VarType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return fmt.Sprintf("VarType(%d)", int(t))
	}
}

// Var is a handle to a variable of a Model. It indexes the value vectors
// exchanged with solvers.
type Var int

// VarInfo describes a variable.
type VarInfo struct {
	Name  string
	Type  VarType
	Lower float64
	Upper float64
}

// Inf is a convenience alias for an unbounded upper limit.
var Inf = math.Inf(1)

// ElementName returns the name of the element (row, col) of a named family of
// variables or constraints, e.g. output[gen1,3].
func ElementName(family, row, col string) string {
	return family + "[" + row + "," + col + "]"
}
