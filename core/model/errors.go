package model

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every configuration error of a problem.
var ErrConfig = errors.New("configuration error")

// ConfigError reports a missing or malformed input parameter. Interval is -1
// when the error is not tied to a time interval.
type ConfigError struct {
	Unit     string
	Interval int
	Param    string
	Reason   string
}

func (e *ConfigError) Error() string {
	msg := "configuration error: " + e.Param
	if e.Unit != "" {
		msg += " of unit " + e.Unit
	}
	if e.Interval >= 0 {
		msg += fmt.Sprintf(" at interval %d", e.Interval)
	}
	return msg + ": " + e.Reason
}

// Is makes errors.Is(err, ErrConfig) true.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func unitErr(unit, param, reason string) error {
	return &ConfigError{Unit: unit, Interval: -1, Param: param, Reason: reason}
}

func intervalErr(t int, param, reason string) error {
	return &ConfigError{Interval: t, Param: param, Reason: reason}
}
