// Package runlog provides the file and database backends of the run log.
package runlog

import (
	"errors"
	"fmt"
	"io/fs"

	core "github.com/kilianp07/unitcommit/core/runlog"
)

// Config selects and configures a run log backend.
type Config struct {
	// Backend is one of "memory", "jsonl", "jsonl_rotating" or "sqlite".
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		case "jsonl", "jsonl_rotating":
			c.Path = "runs.jsonl"
		}
	}
	if c.Backend == "jsonl_rotating" && c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory", "jsonl", "jsonl_rotating", "sqlite":
		return nil
	}
	return fmt.Errorf("runlog: unknown backend %q", c.Backend)
}

// Open creates the store described by cfg.
func Open(cfg Config) (core.Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "jsonl":
		return NewJSONLStore(cfg.Path)
	case "jsonl_rotating":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return core.NewMemoryStore(), nil
	}
}

func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
