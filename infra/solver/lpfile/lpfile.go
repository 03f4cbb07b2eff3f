// Package lpfile writes mip models in the CPLEX LP text format understood by
// the common MIP solvers.
package lpfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/unitcommit/core/mip"
)

const maxLine = 240

var nameReplacer = strings.NewReplacer("[", "(", "]", ")", " ", "_", ":", "_", "+", "_", "-", "_", "*", "_", "^", "_", "<", "_", ">", "_", "=", "_")

// ErrNameClash is returned when two model names map to the same LP name.
var ErrNameClash = errors.New("lpfile: names clash after sanitizing")

// Name returns the LP form of a model name. Brackets are reserved for
// quadratic sections in the format, so element names like output[g1,0]
// become output(g1,0).
func Name(s string) string {
	out := nameReplacer.Replace(s)
	if out == "" {
		return "_"
	}
	switch c := out[0]; {
	case c >= '0' && c <= '9', c == '.', c == 'e', c == 'E':
		out = "_" + out
	}
	return out
}

// VarNames returns the LP name of every variable, indexed by mip.Var.
func VarNames(m *mip.Model) ([]string, error) {
	names := make([]string, m.NumVars())
	seen := make(map[string]string, m.NumVars())
	for i, info := range m.Vars() {
		n := Name(info.Name)
		if prev, ok := seen[n]; ok {
			return nil, fmt.Errorf("%w: %q and %q", ErrNameClash, prev, info.Name)
		}
		seen[n] = info.Name
		names[i] = n
	}
	return names, nil
}

// WriteFile writes m to path.
func WriteFile(path string, m *mip.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write writes m to w.
func Write(w io.Writer, m *mip.Model) error {
	names, err := VarNames(m)
	if err != nil {
		return err
	}
	lw := &writer{w: bufio.NewWriter(w), names: names}

	obj, sense := m.Objective()
	lw.printf("\\ Model %s\n", m.Name())
	if sense == mip.Maximize {
		lw.printf("Maximize\n")
	} else {
		lw.printf("Minimize\n")
	}
	lw.start(" obj:")
	lw.linear(obj.Linear.Terms)
	if obj.Linear.Constant != 0 {
		lw.token(signed(obj.Linear.Constant, true))
	}
	if len(obj.Quad) > 0 {
		lw.token(bracket(len(obj.Linear.Terms) > 0 || obj.Linear.Constant != 0))
		lw.quad(obj.Quad, 2)
		lw.token("] / 2")
	}
	if len(obj.Linear.Terms) == 0 && len(obj.Quad) == 0 && obj.Linear.Constant == 0 {
		lw.token("0")
	}
	lw.end()

	lw.printf("Subject To\n")
	cnames := make(map[string]bool, m.NumConstraints())
	for _, c := range m.Constraints() {
		n := Name(c.ConstraintName())
		if cnames[n] {
			return fmt.Errorf("%w: constraint %q", ErrNameClash, c.ConstraintName())
		}
		cnames[n] = true
		switch c := c.(type) {
		case mip.Linear:
			lw.start(" " + n + ":")
			lw.body(c)
		case mip.Quadratic:
			lw.start(" " + n + ":")
			lw.linear(c.Expr.Linear.Terms)
			if len(c.Expr.Quad) > 0 {
				lw.token(bracket(len(c.Expr.Linear.Terms) > 0))
				lw.quad(c.Expr.Quad, 1)
				lw.token("]")
			}
			lw.token(c.Sense.String() + " " + num(c.RHS-c.Expr.Linear.Constant))
			lw.end()
		case mip.Indicator:
			lw.start(fmt.Sprintf(" %s: %s = %d ->", n, names[c.Trigger], int(c.TriggerValue())))
			lw.body(c.Body)
		default:
			return fmt.Errorf("lpfile: unsupported constraint %T", c)
		}
	}

	lw.printf("Bounds\n")
	var generals, binaries []string
	for i, info := range m.Vars() {
		switch info.Type {
		case mip.Binary:
			binaries = append(binaries, names[i])
			continue
		case mip.Integer:
			generals = append(generals, names[i])
		}
		lw.bound(names[i], info.Lower, info.Upper)
	}
	if len(binaries) > 0 {
		lw.printf("Binaries\n")
		lw.list(binaries)
	}
	if len(generals) > 0 {
		lw.printf("Generals\n")
		lw.list(generals)
	}
	lw.printf("End\n")
	if lw.err != nil {
		return lw.err
	}
	return lw.w.Flush()
}

type writer struct {
	w     *bufio.Writer
	names []string
	line  strings.Builder
	err   error
}

func (lw *writer) printf(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format, args...)
}

func (lw *writer) start(head string) {
	lw.line.Reset()
	lw.line.WriteString(head)
}

// token appends a token to the current line, wrapping long rows.
func (lw *writer) token(tok string) {
	if lw.line.Len()+len(tok)+1 > maxLine {
		lw.printf("%s\n", lw.line.String())
		lw.line.Reset()
		lw.line.WriteString("  ")
	}
	lw.line.WriteByte(' ')
	lw.line.WriteString(tok)
}

func (lw *writer) end() {
	lw.printf("%s\n", lw.line.String())
	lw.line.Reset()
}

func (lw *writer) body(c mip.Linear) {
	lw.linear(c.Expr.Terms)
	if len(c.Expr.Terms) == 0 && len(lw.names) > 0 {
		lw.token("0 " + lw.names[0])
	}
	lw.token(c.Sense.String() + " " + num(c.RHS-c.Expr.Constant))
	lw.end()
}

func (lw *writer) linear(terms []mip.Term) {
	for i, t := range terms {
		lw.token(term(t.Coef, i > 0, lw.names[t.Var]))
	}
}

func (lw *writer) quad(terms []mip.QuadTerm, scale float64) {
	for i, t := range terms {
		prod := lw.names[t.I] + " ^2"
		if t.I != t.J {
			prod = lw.names[t.I] + " * " + lw.names[t.J]
		}
		lw.token(term(scale*t.Coef, i > 0, prod))
	}
}

func (lw *writer) bound(name string, lb, ub float64) {
	switch {
	case math.IsInf(lb, -1) && math.IsInf(ub, 1):
		lw.printf(" %s free\n", name)
	case lb == 0 && math.IsInf(ub, 1):
	case math.IsInf(ub, 1):
		lw.printf(" %s >= %s\n", name, num(lb))
	case lb == ub:
		lw.printf(" %s = %s\n", name, num(lb))
	default:
		lw.printf(" %s <= %s <= %s\n", num(lb), name, num(ub))
	}
}

func (lw *writer) list(names []string) {
	lw.start("")
	for _, n := range names {
		lw.token(n)
	}
	lw.end()
}

func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+infinity"
	case math.IsInf(v, -1):
		return "-infinity"
	}
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// signed formats a coefficient with an explicit sign; the leading sign of
// the first term is omitted when positive.
func signed(v float64, withPlus bool) string {
	if v < 0 {
		return "- " + num(-v)
	}
	if withPlus {
		return "+ " + num(v)
	}
	return num(v)
}

// term formats coef times name, dropping a unit coefficient.
func term(coef float64, withPlus bool, name string) string {
	switch coef {
	case 1:
		if withPlus {
			return "+ " + name
		}
		return name
	case -1:
		return "- " + name
	}
	return signed(coef, withPlus) + " " + name
}

func bracket(afterTerms bool) string {
	if afterTerms {
		return "+ ["
	}
	return "["
}
