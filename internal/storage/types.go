// Package storage supplies the task and calendar stores the planner reads
// from, and the plan history it writes to.
//
// The planning core itself never touches this package; only the orchestrating
// planner does.
package storage

import (
	"context"
	"errors"
	"time"

	"nextup/internal/model"
)

var (
	ErrDisabled = errors.New("storage disabled")
	ErrNotFound = errors.New("not found")
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file
//   - "file": dependency-free JSON backend
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RecurringEvent is a stored recurring definition: the base event plus its
// rule. Expansion into concrete instances happens on read, in the planner.
type RecurringEvent struct {
	Event model.CalendarEvent
	Rule  model.RecurrenceRule
}

// PlanEntry records one accepted placement for diagnostics.
type PlanEntry struct {
	ID        string
	At        time.Time
	TaskID    string
	Start     time.Time
	End       time.Time
	Reasoning string
}

// Store is the persistence surface the planner depends on.
type Store interface {
	// PutTask inserts or replaces a task. An empty ID gets a generated one;
	// the stored task is returned.
	PutTask(ctx context.Context, t model.Task) (model.Task, error)

	// PendingTasks lists tasks with pending status, in insertion order.
	PendingTasks(ctx context.Context) ([]model.Task, error)

	// SetTaskScheduled persists an accepted placement's start on the task.
	SetTaskScheduled(ctx context.Context, taskID string, at time.Time) error

	// PutEvent inserts or replaces a calendar event; rule is nil for one-off
	// events.
	PutEvent(ctx context.Context, ev model.CalendarEvent, rule *model.RecurrenceRule) error

	// EventsBetween lists one-off events overlapping [from, to).
	EventsBetween(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error)

	// RecurringEvents lists every stored recurring definition.
	RecurringEvents(ctx context.Context) ([]RecurringEvent, error)

	// AppendPlan records an accepted placement.
	AppendPlan(ctx context.Context, e PlanEntry) error

	Close() error
}
