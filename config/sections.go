package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/unitcommit/core/commitment"
	"github.com/kilianp07/unitcommit/core/termination"
)

// ProblemConfig locates the problem data and selects the encoding style.
type ProblemConfig struct {
	Path  string `json:"path"`
	Style string `json:"style"`
}

// SetDefaults applies the element-wise style when none is set.
func (c *ProblemConfig) SetDefaults() {
	if c.Style == "" {
		c.Style = commitment.Elementwise.String()
	}
}

// Validate checks the style name.
func (c ProblemConfig) Validate() error {
	if _, err := commitment.ParseStyle(c.Style); err != nil {
		return fmt.Errorf("problem: %w", err)
	}
	return nil
}

// TerminationConfig configures the stall based early termination.
type TerminationConfig struct {
	// Enabled defaults to true; set it to false to always solve to
	// optimality.
	Enabled            *bool   `json:"enabled"`
	StallWindowSeconds float64 `json:"stall_window_seconds"`
	GapEpsilon         float64 `json:"gap_epsilon"`
	HardLimitSeconds   float64 `json:"hard_limit_seconds"`
}

// SetDefaults applies the default stall window and epsilon.
func (c *TerminationConfig) SetDefaults() {
	if c.Enabled == nil {
		on := true
		c.Enabled = &on
	}
	if c.StallWindowSeconds == 0 {
		c.StallWindowSeconds = termination.DefaultStallWindow.Seconds()
	}
	if c.GapEpsilon == 0 {
		c.GapEpsilon = termination.DefaultGapEpsilon
	}
}

// IsEnabled reports whether a monitor should be attached to solves.
func (c TerminationConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// Monitor converts the section to the monitor configuration.
func (c TerminationConfig) Monitor() termination.Config {
	return termination.Config{
		StallWindow: seconds(c.StallWindowSeconds),
		GapEpsilon:  c.GapEpsilon,
		HardLimit:   seconds(c.HardLimitSeconds),
	}
}

// Validate checks the values through the monitor configuration.
func (c TerminationConfig) Validate() error {
	return c.Monitor().Validate()
}

// ScheduleConfig drives the serve command.
type ScheduleConfig struct {
	// Cron is a standard five field expression, or a descriptor such as
	// "@every 15m". Empty disables periodic solves.
	Cron string `json:"cron"`
	// Watch re-solves whenever the problem file is written.
	Watch bool `json:"watch"`
}

// Validate parses the cron expression.
func (c ScheduleConfig) Validate() error {
	if c.Cron == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("schedule: invalid cron %q: %w", c.Cron, err)
	}
	return nil
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }
