package gurobi

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readSolution parses a .sol result file ("name value" per line, # comments)
// into values indexed like names.
func readSolution(r io.Reader, names []string) ([]float64, error) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	values := make([]float64, len(names))
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("gurobi: solution line %d: expected name and value", lineNo)
		}
		i, ok := index[fields[0]]
		if !ok {
			return nil, fmt.Errorf("gurobi: solution line %d: unknown variable %q", lineNo, fields[0])
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("gurobi: solution line %d: %w", lineNo, err)
		}
		values[i] = v
	}
	return values, sc.Err()
}
