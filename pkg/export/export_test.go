package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/unitcommit/core/commitment"
)

func sample() commitment.Schedule {
	return commitment.Schedule{
		Units: []commitment.UnitSchedule{
			{Unit: "gen1", Intervals: []commitment.Interval{
				{Output: 4, Committed: true, Startup: true},
				{Output: 0, Shutdown: true},
			}},
			{Unit: "gen2", Intervals: []commitment.Interval{
				{},
				{Output: 5.5, Committed: true, Startup: true},
			}},
		},
		Demand:    []float64{4, 6},
		Renewable: []float64{0, 0.5},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))
	want := "unit,interval,committed,startup,shutdown,output\n" +
		"gen1,0,true,true,false,4\n" +
		"gen1,1,false,false,true,0\n" +
		"gen2,0,false,false,false,0\n" +
		"gen2,1,true,true,false,5.5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTable(t *testing.T) {
	s := sample()
	var buf bytes.Buffer
	sum := Summary{Model: "m", Status: "feasible", EarlyStopped: true, StopReason: "stalled", Objective: 12.5, Gap: 0.0123, Runtime: 1500 * time.Millisecond}
	require.NoError(t, WriteTable(&buf, sum, &s))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "model m  status feasible (stopped early: stalled)  objective 12.5000  gap 1.23%  runtime 1.5s", lines[0])
	assert.Equal(t, []string{"t", "demand", "renewable", "gen1", "gen2", "thermal"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"0", "4.00", "0.00", "4.00^", "-", "4.00"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"1", "6.00", "0.50", "-v", "5.50^", "5.50"}, strings.Fields(lines[3]))
}

func TestWriteTableWithoutSolution(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Summary{Model: "m", Status: "infeasible", Objective: math.NaN(), Gap: math.NaN()}, nil))
	assert.Equal(t, "model m  status infeasible  objective -  gap -  runtime 0s\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	s := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Summary{RunID: "r1", Model: "m", Status: "optimal", Objective: 3, Gap: math.NaN(), Runtime: 2 * time.Second}, &s))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "r1", doc["run_id"])
	assert.Equal(t, 3.0, doc["objective"])
	assert.NotContains(t, doc, "gap")
	assert.Equal(t, 2.0, doc["runtime_s"])
	sched := doc["schedule"].(map[string]any)
	assert.Len(t, sched["units"], 2)
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"table", "CSV", "json"} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
