package events

import "time"

// SolveStarted is published once the model is built, before the search.
type SolveStarted struct {
	RunID       string
	Model       string
	Style       string
	Variables   int
	Constraints int
}

// GapImproved is published for every meaningful gap change.
type GapImproved struct {
	RunID   string
	Model   string
	Gap     float64
	Runtime time.Duration
}

// TerminationRequested is published when the monitor stops the search.
type TerminationRequested struct {
	RunID            string
	Model            string
	Reason           string
	Gap              float64
	Runtime          time.Duration
	SinceImprovement time.Duration
}

// SolveFinished is published when the solver returns, successfully or not.
type SolveFinished struct {
	RunID        string
	Model        string
	Style        string
	Backend      string
	Status       string
	EarlyStopped bool
	StopReason   string
	Objective    float64
	Gap          float64
	Runtime      time.Duration
	Variables    int
	Constraints  int
	Err          error
}
