package arbiter

import (
	"sort"

	"nextup/internal/model"
)

// RejectReason classifies why a proposed block was dropped.
type RejectReason string

const (
	RejectUnknownTask     RejectReason = "unknown_task"
	RejectInvalidTime     RejectReason = "invalid_time"
	RejectCalendarOverlap RejectReason = "calendar_overlap"
	RejectBlockOverlap    RejectReason = "block_overlap"
)

// Rejection pairs a dropped block with the reason it was dropped, so callers
// and tests can assert on arbitration decisions instead of scraping logs.
type Rejection struct {
	Block  model.ScheduledBlock
	Reason RejectReason
}

// ScheduleResult carries the surviving schedule plus every drop decision.
type ScheduleResult struct {
	Accepted []model.ScheduledBlock
	Rejected []Rejection
}

// ArbitrateSchedule filters an untrusted set of proposed placements down to a
// safe one. Filters run in order:
//
//  1. validity: the block must reference a known task id and carry usable,
//     ordered start/end instants
//  2. ground truth: the block must not overlap any non-all-day calendar event
//  3. self overlap: blocks are sorted by start and kept greedily, so the
//     result is one serial schedule; overlaps resolve in favor of the
//     earlier-starting block
//
// Empty input or an empty valid set is not an error; the result is empty.
func ArbitrateSchedule(proposed []model.ScheduledBlock, validIDs map[string]struct{}, events []model.CalendarEvent) ScheduleResult {
	var res ScheduleResult

	survivors := make([]model.ScheduledBlock, 0, len(proposed))
	for _, b := range proposed {
		if _, ok := validIDs[b.TaskID]; !ok {
			res.Rejected = append(res.Rejected, Rejection{Block: b, Reason: RejectUnknownTask})
			continue
		}
		if b.Start.IsZero() || b.End.IsZero() || !b.Start.Before(b.End) {
			res.Rejected = append(res.Rejected, Rejection{Block: b, Reason: RejectInvalidTime})
			continue
		}
		if conflictsCalendar(b, events) {
			res.Rejected = append(res.Rejected, Rejection{Block: b, Reason: RejectCalendarOverlap})
			continue
		}
		survivors = append(survivors, b)
	}

	sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].Start.Before(survivors[j].Start) })

	var lastEnd *model.ScheduledBlock
	for _, b := range survivors {
		if lastEnd != nil && b.Start.Before(lastEnd.End) {
			res.Rejected = append(res.Rejected, Rejection{Block: b, Reason: RejectBlockOverlap})
			continue
		}
		res.Accepted = append(res.Accepted, b)
		last := b
		lastEnd = &last
	}
	return res
}

// conflictsCalendar reports half-open overlap with any non-all-day event.
// All-day events never block placement.
func conflictsCalendar(b model.ScheduledBlock, events []model.CalendarEvent) bool {
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if ev.Overlaps(b.Start, b.End) {
			return true
		}
	}
	return false
}

// TaskIDSet collects the ids of the given tasks into a membership set.
func TaskIDSet(tasks []model.Task) map[string]struct{} {
	set := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		set[t.ID] = struct{}{}
	}
	return set
}
