// Package model holds the value objects shared by the planning core.
//
// Everything here is plain data passed in by the caller for a single
// computation; no type owns state across calls.
package model

import "time"

// Priority orders tasks for recommendation fallback ranking.
type Priority string

const (
	PriorityUrgent    Priority = "urgent"
	PriorityImportant Priority = "important"
	PriorityNormal    Priority = "normal"
	PrioritySomeday   Priority = "someday"
)

// Rank returns the sort rank of a priority (lower sorts first).
// Unknown values rank after someday so malformed data never jumps the queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityImportant:
		return 1
	case PriorityNormal:
		return 2
	case PrioritySomeday:
		return 3
	default:
		return 4
	}
}

type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusSnoozed    TaskStatus = "snoozed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Task is a unit of pending work. Only pending tasks are eligible for
// recommendation or placement.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Energy      EnergyLevel

	// EstimatedMinutes is 0 when the user gave no estimate.
	EstimatedMinutes int

	Category     string
	LocationTags []string

	Deadline     *time.Time
	ScheduledFor *time.Time

	Status TaskStatus
}

// EventSource identifies which system a calendar event was synced from.
type EventSource string

const (
	SourceExternalA EventSource = "external_a"
	SourceExternalB EventSource = "external_b"
	SourceInternal  EventSource = "internal"
)

// CalendarEvent is an immutable busy interval on the user's calendar.
// StartTime < EndTime always holds for well-formed events.
type CalendarEvent struct {
	ID          string
	Source      EventSource
	ExternalID  string
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
}

// Overlaps reports half-open interval overlap with [start, end).
func (e CalendarEvent) Overlaps(start, end time.Time) bool {
	return start.Before(e.EndTime) && end.After(e.StartTime)
}

type RecurrenceType string

const (
	RecurDaily  RecurrenceType = "daily"
	RecurWeekly RecurrenceType = "weekly"
)

// RecurrenceRule describes how a base event repeats.
//
// Weekdays is only meaningful for weekly rules (time.Weekday, Sunday=0).
// Until nil means "16 weeks after the base start".
type RecurrenceRule struct {
	Type     RecurrenceType
	Weekdays []time.Weekday
	Until    *time.Time
}

// FreeTimeBlock is a contiguous span of active hours with nothing booked.
// Blocks shorter than 20 minutes are never surfaced.
type FreeTimeBlock struct {
	Start time.Time
	End   time.Time
}

func (b FreeTimeBlock) Duration() time.Duration { return b.End.Sub(b.Start) }

func (b FreeTimeBlock) DurationMinutes() int {
	return int(b.End.Sub(b.Start) / time.Minute)
}

// ScheduledBlock is one proposed (task -> time span) placement.
// It is untrusted until it survives schedule arbitration.
type ScheduledBlock struct {
	TaskID    string
	Start     time.Time
	End       time.Time
	Reasoning string
}

// Alternative is a runner-up suggestion attached to a recommendation.
type Alternative struct {
	TaskID    string
	Reasoning string
}

// Recommendation is a single "do this next" choice.
type Recommendation struct {
	TaskID       string
	Reasoning    string
	Alternatives []Alternative
}

// EnergyProfile maps the four fixed day segments to expected energy.
// A nil profile means "assume medium everywhere".
type EnergyProfile struct {
	Morning   EnergyLevel
	Afternoon EnergyLevel
	Evening   EnergyLevel
	Night     EnergyLevel
}

// SavedLocation is a named geofence.
type SavedLocation struct {
	Name      string
	Latitude  float64
	Longitude float64

	// RadiusMeters 0 means the 200m default applies.
	RadiusMeters float64
}

// PlanContext is the snapshot handed to the external reasoning service.
// It is assembled by the planner and serialized once at the proposer edge.
type PlanContext struct {
	Now        time.Time
	Timezone   string
	Energy     EnergyLevel
	Location   *SavedLocation
	Tasks      []Task
	Events     []CalendarEvent
	FreeBlocks []FreeTimeBlock
}
