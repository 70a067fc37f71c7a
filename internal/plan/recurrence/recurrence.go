// Package recurrence expands a recurring event definition into concrete
// calendar instances.
//
// Expansion is a pure function: identical inputs always produce identical
// output (required for idempotent re-sync).
package recurrence

import (
	"sort"
	"time"

	"nextup/internal/model"
)

const (
	// MaxInstances hard-caps expansion; silent truncation beats a runaway loop.
	MaxInstances = 200

	// DefaultSpan is applied when a rule carries no explicit end.
	DefaultSpan = 16 * 7 * 24 * time.Hour
)

// Expand turns a base event plus an optional rule into ordered concrete
// instances. Each instance keeps the base event's descriptive fields and
// duration; instance IDs are derived from the base ID and the instance date
// so re-expansion yields stable identifiers.
//
// No rule means the base event itself is the only instance.
func Expand(base model.CalendarEvent, rule *model.RecurrenceRule) []model.CalendarEvent {
	if rule == nil {
		return []model.CalendarEvent{base}
	}

	until := ruleEnd(base.StartTime, rule)
	duration := base.EndTime.Sub(base.StartTime)

	var out []model.CalendarEvent
	switch rule.Type {
	case model.RecurDaily:
		out = expandDaily(base, duration, until)
	case model.RecurWeekly:
		out = expandWeekly(base, duration, until, rule.Weekdays)
	default:
		return []model.CalendarEvent{base}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func ruleEnd(start time.Time, rule *model.RecurrenceRule) time.Time {
	if rule.Until != nil {
		return *rule.Until
	}
	return start.Add(DefaultSpan)
}

func expandDaily(base model.CalendarEvent, d time.Duration, until time.Time) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, 32)
	for t := base.StartTime; !t.After(until) && len(out) < MaxInstances; t = addDays(t, 1) {
		out = append(out, instance(base, t, d))
	}
	return out
}

func expandWeekly(base model.CalendarEvent, d time.Duration, until time.Time, days []time.Weekday) []model.CalendarEvent {
	if len(days) == 0 {
		// No weekday list: repeat on the base event's own weekday.
		days = []time.Weekday{base.StartTime.Weekday()}
	}

	out := make([]model.CalendarEvent, 0, 32)
	// Walk 7-day windows anchored on the Monday on/before the base start.
	for week := mondayOnOrBefore(base.StartTime); !week.After(until); week = addDays(week, 7) {
		for _, wd := range days {
			t := addDays(week, mondayOffset(wd))
			if t.Before(base.StartTime) || t.After(until) {
				continue
			}
			if len(out) >= MaxInstances {
				return out
			}
			out = append(out, instance(base, t, d))
		}
	}
	return out
}

func instance(base model.CalendarEvent, start time.Time, d time.Duration) model.CalendarEvent {
	ev := base
	ev.ID = base.ID + "@" + start.Format("20060102")
	ev.StartTime = start
	ev.EndTime = start.Add(d)
	return ev
}

// addDays steps by calendar days, preserving the wall-clock time across
// DST transitions.
func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// mondayOnOrBefore returns the same wall-clock instant on the Monday of t's week.
func mondayOnOrBefore(t time.Time) time.Time {
	return addDays(t, -mondayOffset(t.Weekday()))
}

// mondayOffset maps a weekday to its day index in a Monday-anchored week
// (Monday=0 .. Sunday=6).
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
