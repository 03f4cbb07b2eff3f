package model

// CostCurve holds the cost coefficients of a thermal unit. Running during an
// interval costs Fixed + Linear*p + Quadratic*p^2.
type CostCurve struct {
	Fixed     float64 `json:"fixed" yaml:"fixed"`
	Linear    float64 `json:"linear" yaml:"linear"`
	Quadratic float64 `json:"quadratic" yaml:"quadratic"`
	Startup   float64 `json:"startup" yaml:"startup"`
	Shutdown  float64 `json:"shutdown" yaml:"shutdown"`
}

// Limits bounds the output of a committed unit.
type Limits struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Unit is a generating unit. It is immutable for the duration of a solve.
type Unit struct {
	Name        string
	Cost        CostCurve
	Limits      Limits
	InitiallyOn bool
}

// InitialStatus returns 1 when the unit is on before the horizon starts.
func (u Unit) InitialStatus() float64 {
	if u.InitiallyOn {
		return 1
	}
	return 0
}

// IntervalCost returns the cost of the unit over one interval.
func (u Unit) IntervalCost(committed bool, output float64, startup, shutdown bool) float64 {
	var c float64
	if committed {
		c += u.Cost.Fixed
	}
	c += u.Cost.Linear*output + u.Cost.Quadratic*output*output
	if startup {
		c += u.Cost.Startup
	}
	if shutdown {
		c += u.Cost.Shutdown
	}
	return c
}
