// Package factory builds pluggable backends from a {type, conf} config
// section. Solver backends and metrics sinks register here; Typed lets a
// constructor take its decoded config struct directly.
//
//	solver.Register("gurobi", factory.Typed(func(c gurobi.Config) (solver.Solver, error) {
//	    return gurobi.New(c)
//	}))
//	s, err := solver.New(factory.ModuleConfig{Type: "gurobi", Conf: map[string]any{"threads": "4"}})
package factory
