package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadProblem reads a Problem from a JSON or YAML file.
func LoadProblem(path string) (Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return Problem{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeProblem(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// DecodeProblem reads a Problem from r in the given format ("yaml", "yml" or "json").
func DecodeProblem(r io.Reader, format string) (Problem, error) {
	var p Problem
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return p, fmt.Errorf("decode problem: %w", err)
		}
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return p, fmt.Errorf("decode problem: %w", err)
		}
	default:
		return p, fmt.Errorf("unsupported problem format: %s", format)
	}
	return p, nil
}
