// Package freetime computes the open gaps between busy calendar intervals.
package freetime

import (
	"sort"
	"time"

	"nextup/internal/model"
)

// MinBlock is the duration floor: shorter gaps are not actionable and are
// never surfaced.
const MinBlock = 20 * time.Minute

// Params bounds the free-time search.
//
// WakeHour/SleepHour define the daily active window [wake, sleep) in the
// location of Now. WakeHour < SleepHour is a caller contract (validated at
// the config layer).
type Params struct {
	Now         time.Time
	HorizonDays int
	WakeHour    int
	SleepHour   int

	// MinBlock below the 20-minute floor is clamped up to it.
	MinBlock time.Duration
}

func (p Params) normalized() Params {
	if p.HorizonDays <= 0 {
		p.HorizonDays = 7
	}
	if p.MinBlock < MinBlock {
		p.MinBlock = MinBlock
	}
	return p
}

// Find sweeps each day of the horizon and returns every gap of at least
// MinBlock between busy events inside the active window, ordered by start.
//
// All-day events never consume free time. Day 0's window starts at Now when
// Now is already past wake-hour, so nothing is ever offered in the past.
// Blocks never merge across day boundaries.
func Find(p Params, events []model.CalendarEvent) []model.FreeTimeBlock {
	p = p.normalized()

	busy := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !ev.AllDay {
			busy = append(busy, ev)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].StartTime.Before(busy[j].StartTime) })

	loc := p.Now.Location()
	var blocks []model.FreeTimeBlock
	for day := 0; day < p.HorizonDays; day++ {
		date := p.Now.AddDate(0, 0, day)
		winStart := time.Date(date.Year(), date.Month(), date.Day(), p.WakeHour, 0, 0, 0, loc)
		winEnd := time.Date(date.Year(), date.Month(), date.Day(), p.SleepHour, 0, 0, 0, loc)

		if day == 0 && p.Now.After(winStart) {
			winStart = p.Now
		}
		if !winStart.Before(winEnd) {
			continue
		}

		blocks = appendDayBlocks(blocks, winStart, winEnd, busy, p.MinBlock)
	}
	return blocks
}

// appendDayBlocks sweeps a cursor across one active window and emits the
// qualifying gaps.
func appendDayBlocks(blocks []model.FreeTimeBlock, winStart, winEnd time.Time, busy []model.CalendarEvent, minBlock time.Duration) []model.FreeTimeBlock {
	cursor := winStart
	for _, ev := range busy {
		if !ev.Overlaps(winStart, winEnd) {
			continue
		}
		if ev.StartTime.After(cursor) {
			blocks = maybeAppend(blocks, cursor, ev.StartTime, minBlock)
		}
		if ev.EndTime.After(cursor) {
			cursor = ev.EndTime
		}
	}
	return maybeAppend(blocks, cursor, winEnd, minBlock)
}

func maybeAppend(blocks []model.FreeTimeBlock, start, end time.Time, minBlock time.Duration) []model.FreeTimeBlock {
	if end.Sub(start) < minBlock {
		return blocks
	}
	return append(blocks, model.FreeTimeBlock{Start: start, End: end})
}
