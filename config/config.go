// Package config loads the application configuration from a YAML or JSON
// file with K_ prefixed environment overrides (K_SOLVER__TYPE=gurobi sets
// solver.type).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/unitcommit/core/factory"
	"github.com/kilianp07/unitcommit/core/metrics"
	"github.com/kilianp07/unitcommit/infra/monitoring"
	"github.com/kilianp07/unitcommit/infra/mqtt"
	"github.com/kilianp07/unitcommit/infra/runlog"
)

type Config struct {
	Problem     ProblemConfig        `json:"problem"`
	Termination TerminationConfig    `json:"termination"`
	Solver      factory.ModuleConfig `json:"solver"`
	Metrics     metrics.Config       `json:"metrics"`
	RunLog      runlog.Config        `json:"runlog"`
	MQTT        mqtt.Config          `json:"mqtt"`
	Schedule    ScheduleConfig       `json:"schedule"`
	Sentry      monitoring.Config    `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides. The callback maps the "__" separator
	// to the "." koanf delimiter so the keys unflatten into sections.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Problem.SetDefaults()
	c.Termination.SetDefaults()
	if c.Solver.Type == "" {
		c.Solver.Type = "gurobi"
	}
	c.RunLog.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and joins the errors.
func (c Config) Validate() error {
	errs := []error{
		c.Problem.Validate(),
		c.Termination.Validate(),
		c.RunLog.Validate(),
		c.Schedule.Validate(),
	}
	if c.MQTT.Enabled() {
		errs = append(errs, c.MQTT.Validate())
	}
	return errors.Join(errs...)
}

// resolvePaths makes the problem and run log paths relative to the config
// file.
func (c *Config) resolvePaths(dir string) {
	if c.Problem.Path != "" && !filepath.IsAbs(c.Problem.Path) {
		c.Problem.Path = filepath.Join(dir, c.Problem.Path)
	}
	if c.RunLog.Path != "" && !filepath.IsAbs(c.RunLog.Path) {
		c.RunLog.Path = filepath.Join(dir, c.RunLog.Path)
	}
}
