package termination

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultStallWindow = 15 * time.Second
	DefaultGapEpsilon  = 1e-4
)

// Config holds the stall policy. It is fixed for the duration of a solve.
type Config struct {
	// StallWindow is the solve time without a meaningful gap change after
	// which termination is requested. The window must be strictly exceeded.
	StallWindow time.Duration
	// GapEpsilon is the minimum absolute gap change counted as progress.
	GapEpsilon float64
	// HardLimit, when positive, requests termination once the solve time
	// reaches it regardless of progress.
	HardLimit time.Duration
}

// DefaultConfig returns the stall policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{StallWindow: DefaultStallWindow, GapEpsilon: DefaultGapEpsilon}
}

// Validate checks the policy values.
func (c Config) Validate() error {
	if c.StallWindow <= 0 {
		return fmt.Errorf("termination: stall window must be positive, got %s", c.StallWindow)
	}
	if c.GapEpsilon < 0 || math.IsNaN(c.GapEpsilon) || math.IsInf(c.GapEpsilon, 0) {
		return fmt.Errorf("termination: gap epsilon must be a finite non-negative number, got %v", c.GapEpsilon)
	}
	if c.HardLimit < 0 {
		return fmt.Errorf("termination: hard limit must not be negative, got %s", c.HardLimit)
	}
	return nil
}
