// Package export renders solved schedules as a text table, CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kilianp07/unitcommit/core/commitment"
)

// Summary describes the solve that produced a schedule.
type Summary struct {
	RunID        string        `json:"run_id"`
	Model        string        `json:"model"`
	Style        string        `json:"style"`
	Status       string        `json:"status"`
	EarlyStopped bool          `json:"early_stopped"`
	StopReason   string        `json:"stop_reason,omitempty"`
	Objective    float64       `json:"-"`
	Gap          float64       `json:"-"`
	Runtime      time.Duration `json:"-"`
}

// Format names an output format.
type Format string

const (
	Table Format = "table"
	CSV   Format = "csv"
	JSON  Format = "json"
)

// ParseFormat accepts table, csv and json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Table, CSV, JSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Write renders sum and s in format f. s may be nil when the solve found
// no solution.
func Write(w io.Writer, f Format, sum Summary, s *commitment.Schedule) error {
	switch f {
	case CSV:
		if s == nil {
			return nil
		}
		return WriteCSV(w, *s)
	case JSON:
		return WriteJSON(w, sum, s)
	default:
		return WriteTable(w, sum, s)
	}
}

// WriteTable prints the summary followed by one row per interval with the
// demand, the renewable infeed and the output of every committed unit.
func WriteTable(w io.Writer, sum Summary, s *commitment.Schedule) error {
	status := sum.Status
	if sum.EarlyStopped {
		status += " (stopped early: " + sum.StopReason + ")"
	}
	if _, err := fmt.Fprintf(w, "model %s  status %s  objective %s  gap %s  runtime %s\n",
		sum.Model, status, num(sum.Objective, 4), percent(sum.Gap), sum.Runtime.Round(time.Millisecond)); err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"t", "demand", "renewable"}
	for _, u := range s.Units {
		header = append(header, u.Unit)
	}
	header = append(header, "thermal")
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")+"\t"); err != nil {
		return err
	}
	thermal := s.CommittedOutput()
	for t := range s.Demand {
		row := []string{strconv.Itoa(t), num(s.Demand[t], 2), num(s.Renewable[t], 2)}
		for _, u := range s.Units {
			iv := u.Intervals[t]
			cell := "-"
			if iv.Committed {
				cell = num(iv.Output, 2)
			}
			if iv.Startup {
				cell += "^"
			}
			if iv.Shutdown {
				cell += "v"
			}
			row = append(row, cell)
		}
		row = append(row, num(thermal[t], 2))
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")+"\t"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteCSV writes one record per unit and interval.
func WriteCSV(w io.Writer, s commitment.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"unit", "interval", "committed", "startup", "shutdown", "output"}); err != nil {
		return err
	}
	for _, u := range s.Units {
		for t, iv := range u.Intervals {
			rec := []string{
				u.Unit,
				strconv.Itoa(t),
				strconv.FormatBool(iv.Committed),
				strconv.FormatBool(iv.Startup),
				strconv.FormatBool(iv.Shutdown),
				strconv.FormatFloat(iv.Output, 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

type document struct {
	Summary
	Objective *float64             `json:"objective,omitempty"`
	Gap       *float64             `json:"gap,omitempty"`
	RuntimeS  float64              `json:"runtime_s"`
	Schedule  *commitment.Schedule `json:"schedule,omitempty"`
}

// WriteJSON writes the summary and schedule as one indented document.
func WriteJSON(w io.Writer, sum Summary, s *commitment.Schedule) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{
		Summary:   sum,
		Objective: finite(sum.Objective),
		Gap:       finite(sum.Gap),
		RuntimeS:  sum.Runtime.Seconds(),
		Schedule:  s,
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}
