package slideshow

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kilianp07/unitcommit/core/mip"
)

// pair is a scored ordered photo pair on consecutive slides s and s+1.
type pair struct {
	first, second int
	slide         int
	score         int
	v             mip.Var
}

// Encoding is an encoded slideshow.
type Encoding struct {
	Model  *mip.Model
	Photos []Photo
	// Place[p][s] is 1 when photo p is shown on slide s; Used[s] when slide
	// s is part of the show.
	Place [][]mip.Var
	Used  []mip.Var

	pairs []pair
}

// Slides returns the maximum number of slides: one per horizontal photo
// and one per two vertical photos.
func Slides(photos []Photo) int {
	h, v := 0, 0
	for _, p := range photos {
		if p.Orientation == Horizontal {
			h++
		} else {
			v++
		}
	}
	return h + v/2
}

// Encode builds the assignment model. Every photo is shown at most once,
// a used slide holds one horizontal or two vertical photos, used slides
// come first, and the objective sums Score over the photos of every two
// consecutive slides through pair variables bounded by both placements.
func Encode(photos []Photo) (*Encoding, error) {
	n := len(photos)
	S := Slides(photos)
	if S == 0 {
		return nil, fmt.Errorf("%w: no slide can be formed from %d photos", ErrFormat, n)
	}
	m := mip.NewModel("slideshow")
	e := &Encoding{Model: m, Photos: photos, Place: make([][]mip.Var, n), Used: make([]mip.Var, S)}

	for p := range photos {
		e.Place[p] = make([]mip.Var, S)
		for s := 0; s < S; s++ {
			v, err := m.AddVar(mip.ElementName("x", strconv.Itoa(p), strconv.Itoa(s)), mip.Binary, 0, 1)
			if err != nil {
				return nil, err
			}
			e.Place[p][s] = v
		}
	}
	for s := 0; s < S; s++ {
		v, err := m.AddVar("used["+strconv.Itoa(s)+"]", mip.Binary, 0, 1)
		if err != nil {
			return nil, err
		}
		e.Used[s] = v
	}

	var cons []mip.Linear
	for p := range photos {
		cons = append(cons, mip.Linear{
			Name: "photo_once[" + strconv.Itoa(p) + "]", Expr: mip.Sum(e.Place[p]...), Sense: mip.LessEqual, RHS: 1,
		})
	}
	for s := 0; s < S; s++ {
		var fill mip.LinExpr
		for p, ph := range photos {
			coef := 1.0
			if ph.Orientation == Horizontal {
				coef = 2
			}
			fill.AddTerm(e.Place[p][s], coef)
		}
		fill.AddTerm(e.Used[s], -2)
		cons = append(cons, mip.Linear{Name: "slide[" + strconv.Itoa(s) + "]", Expr: fill, Sense: mip.Equal})
		if s > 0 {
			var order mip.LinExpr
			order.AddTerm(e.Used[s], 1)
			order.AddTerm(e.Used[s-1], -1)
			cons = append(cons, mip.Linear{Name: "contiguous[" + strconv.Itoa(s) + "]", Expr: order, Sense: mip.LessEqual})
		}
	}

	var obj mip.QuadExpr
	for s := 0; s+1 < S; s++ {
		for p := range photos {
			for q := range photos {
				if p == q {
					continue
				}
				sc := Score(photos[p], photos[q])
				if sc == 0 {
					continue
				}
				key := strconv.Itoa(p) + "," + strconv.Itoa(q) + "," + strconv.Itoa(s)
				z, err := m.AddVar("z["+key+"]", mip.Binary, 0, 1)
				if err != nil {
					return nil, err
				}
				e.pairs = append(e.pairs, pair{first: p, second: q, slide: s, score: sc, v: z})
				obj.AddTerm(z, float64(sc))

				var left, right mip.LinExpr
				left.AddTerm(z, 1)
				left.AddTerm(e.Place[p][s], -1)
				right.AddTerm(z, 1)
				right.AddTerm(e.Place[q][s+1], -1)
				cons = append(cons,
					mip.Linear{Name: "link_first[" + key + "]", Expr: left, Sense: mip.LessEqual},
					mip.Linear{Name: "link_second[" + key + "]", Expr: right, Sense: mip.LessEqual})
			}
		}
	}
	if err := m.SetObjective(obj, mip.Maximize); err != nil {
		return nil, err
	}
	for _, c := range cons {
		if err := m.AddConstraint(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Show decodes solver values into the ordered photo indices of the used
// slides.
func (e *Encoding) Show(values []float64) ([][]int, error) {
	if len(values) != e.Model.NumVars() {
		return nil, fmt.Errorf("%w: %d values for %d variables", mip.ErrDimension, len(values), e.Model.NumVars())
	}
	var show [][]int
	for s, u := range e.Used {
		if math.Round(values[u]) != 1 {
			continue
		}
		var slide []int
		for p := range e.Photos {
			if values[e.Place[p][s]] > 0.5 {
				slide = append(slide, p)
			}
		}
		show = append(show, slide)
	}
	return show, nil
}

// Assignment lays a show out as a value vector, setting every pair
// variable whose photos are both placed.
func (e *Encoding) Assignment(show [][]int) ([]float64, error) {
	if len(show) > len(e.Used) {
		return nil, fmt.Errorf("%w: %d slides, at most %d", mip.ErrDimension, len(show), len(e.Used))
	}
	x := make([]float64, e.Model.NumVars())
	for s, slide := range show {
		x[e.Used[s]] = 1
		for _, p := range slide {
			if p < 0 || p >= len(e.Photos) {
				return nil, fmt.Errorf("%w: photo %d", mip.ErrDimension, p)
			}
			x[e.Place[p][s]] = 1
		}
	}
	for _, pr := range e.pairs {
		x[pr.v] = math.Min(x[e.Place[pr.first][pr.slide]], x[e.Place[pr.second][pr.slide+1]])
	}
	return x, nil
}

// Interest sums Score over the photos of every two consecutive slides.
func Interest(photos []Photo, show [][]int) int {
	total := 0
	for s := 0; s+1 < len(show); s++ {
		for _, p := range show[s] {
			for _, q := range show[s+1] {
				total += Score(photos[p], photos[q])
			}
		}
	}
	return total
}
