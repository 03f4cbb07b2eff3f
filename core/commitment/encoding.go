package commitment

import (
	"fmt"
	"strings"

	"github.com/kilianp07/unitcommit/core/mip"
	"github.com/kilianp07/unitcommit/core/model"
)

// Variable families.
const (
	VarOutput    = "output"
	VarCommitted = "committed"
	VarStartup   = "startup"
	VarShutdown  = "shutdown"
)

// Style selects the builder used to encode a problem.
type Style int

const (
	Elementwise Style = iota
	Bulk
)

func (s Style) String() string {
	if s == Bulk {
		return "bulk"
	}
	return "elementwise"
}

// ParseStyle accepts "elementwise" (or "") and "bulk".
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "", "elementwise":
		return Elementwise, nil
	case "bulk":
		return Bulk, nil
	default:
		return Elementwise, fmt.Errorf("unknown encoding style %q", s)
	}
}

// Grid indexes variables by [unit][interval].
type Grid [][]mip.Var

// At returns the variable of unit g at interval t.
func (g Grid) At(unit, t int) mip.Var { return g[unit][t] }

func gridFromBlock(b mip.Block) Grid {
	rows, _ := b.Dims()
	g := make(Grid, rows)
	for i := range g {
		g[i] = b.Row(i)
	}
	return g
}

// Encoding is an encoded problem: the model plus the handles needed to read
// a schedule back from solver values.
type Encoding struct {
	Model    *mip.Model
	Style    Style
	Units    []model.Unit
	Forecast model.Forecast

	Output    Grid
	Committed Grid
	Startup   Grid
	Shutdown  Grid
}

// Horizon returns the number of intervals.
func (e *Encoding) Horizon() int { return len(e.Forecast.Demand) }

// Encode builds the model of p in the requested style. No partial model is
// returned on error.
func Encode(p model.Problem, style Style) (*Encoding, error) {
	switch style {
	case Elementwise:
		return EncodeElementwise(p)
	case Bulk:
		return EncodeBulk(p)
	default:
		return nil, fmt.Errorf("unknown encoding style %d", style)
	}
}

func modelName(p model.Problem) string {
	if p.Name != "" {
		return p.Name
	}
	return "unit_commitment"
}

func unitNames(units []model.Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}
