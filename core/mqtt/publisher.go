// Package mqtt defines how solved schedules are announced to downstream
// consumers (plant controllers, dashboards) over a message broker.
package mqtt

import (
	"context"
	"time"

	"github.com/kilianp07/unitcommit/core/commitment"
)

// ScheduleMessage is the payload published after a solve with a solution.
type ScheduleMessage struct {
	RunID        string              `json:"run_id"`
	Model        string              `json:"model"`
	Status       string              `json:"status"`
	EarlyStopped bool                `json:"early_stopped"`
	StopReason   string              `json:"stop_reason,omitempty"`
	Objective    *float64            `json:"objective,omitempty"`
	Gap          *float64            `json:"gap,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
	Schedule     commitment.Schedule `json:"schedule"`
}

// UnitMessage is the per-unit slice of a schedule, published on a topic of
// its own so a plant controller only receives its trajectory.
type UnitMessage struct {
	RunID     string                `json:"run_id"`
	Unit      string                `json:"unit"`
	Timestamp time.Time             `json:"timestamp"`
	Intervals []commitment.Interval `json:"intervals"`
}

// SchedulePublisher sends schedules to the broker.
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, msg ScheduleMessage) error
	Close()
}

// NopPublisher discards schedules. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishSchedule(context.Context, ScheduleMessage) error { return nil }
func (NopPublisher) Close()                                                 {}
