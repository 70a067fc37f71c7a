package arbiter

import (
	"reflect"
	"testing"
	"time"

	"nextup/internal/model"
)

func at(h, m int) time.Time {
	return time.Date(2025, 9, 2, h, m, 0, 0, time.UTC)
}

func block(taskID string, start, end time.Time) model.ScheduledBlock {
	return model.ScheduledBlock{TaskID: taskID, Start: start, End: end, Reasoning: "proposed"}
}

func pendingTasks(ids ...string) []model.Task {
	out := make([]model.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Task{ID: id, Status: model.StatusPending})
	}
	return out
}

func TestArbitrateScheduleFilters(t *testing.T) {
	t.Parallel()
	valid := TaskIDSet(pendingTasks("t1", "t2", "t3", "t4"))
	events := []model.CalendarEvent{
		{ID: "mtg", StartTime: at(10, 0), EndTime: at(11, 0)},
	}

	proposed := []model.ScheduledBlock{
		block("ghost", at(7, 0), at(8, 0)),  // unknown task id
		block("t1", time.Time{}, at(8, 0)),  // missing start
		block("t2", at(9, 30), at(10, 30)),  // overlaps the meeting
		block("t3", at(12, 0), at(13, 0)),   // fine
		block("t4", at(12, 30), at(13, 30)), // overlaps t3's block
	}

	res := ArbitrateSchedule(proposed, valid, events)

	if len(res.Accepted) != 1 || res.Accepted[0].TaskID != "t3" {
		t.Fatalf("accepted = %+v, want only t3", res.Accepted)
	}

	wantReasons := map[string]RejectReason{
		"ghost": RejectUnknownTask,
		"t1":    RejectInvalidTime,
		"t2":    RejectCalendarOverlap,
		"t4":    RejectBlockOverlap,
	}
	if len(res.Rejected) != len(wantReasons) {
		t.Fatalf("rejected = %+v, want %d entries", res.Rejected, len(wantReasons))
	}
	for _, rej := range res.Rejected {
		if want := wantReasons[rej.Block.TaskID]; rej.Reason != want {
			t.Fatalf("task %s rejected for %q, want %q", rej.Block.TaskID, rej.Reason, want)
		}
	}
}

func TestArbitrateScheduleSafetyProperties(t *testing.T) {
	t.Parallel()
	valid := TaskIDSet(pendingTasks("t1", "t2", "t3", "t4", "t5"))
	events := []model.CalendarEvent{
		{ID: "e1", StartTime: at(9, 0), EndTime: at(9, 30)},
		{ID: "e2", StartTime: at(14, 0), EndTime: at(15, 0)},
	}
	proposed := []model.ScheduledBlock{
		block("t3", at(13, 0), at(14, 30)),
		block("t1", at(8, 0), at(9, 0)),
		block("t2", at(8, 30), at(9, 0)),
		block("t4", at(15, 0), at(16, 0)),
		block("t5", at(15, 30), at(16, 30)),
	}

	res := ArbitrateSchedule(proposed, valid, events)

	for i, b := range res.Accepted {
		if _, ok := valid[b.TaskID]; !ok {
			t.Fatalf("accepted block %d has unknown task %q", i, b.TaskID)
		}
		for _, ev := range events {
			if ev.Overlaps(b.Start, b.End) {
				t.Fatalf("accepted block %d overlaps event %s", i, ev.ID)
			}
		}
		if i > 0 && b.Start.Before(res.Accepted[i-1].End) {
			t.Fatalf("accepted blocks %d and %d overlap", i-1, i)
		}
	}

	// Earlier-starting block wins overlaps: t1 [8:00,9:00) kept, t2 [8:30,9:00) dropped.
	if res.Accepted[0].TaskID != "t1" {
		t.Fatalf("first accepted = %s, want t1", res.Accepted[0].TaskID)
	}
}

func TestArbitrateScheduleAllDayNeverConflicts(t *testing.T) {
	t.Parallel()
	valid := TaskIDSet(pendingTasks("t1"))
	events := []model.CalendarEvent{
		{ID: "holiday", StartTime: at(0, 0), EndTime: at(23, 59), AllDay: true},
	}

	res := ArbitrateSchedule([]model.ScheduledBlock{block("t1", at(9, 0), at(10, 0))}, valid, events)
	if len(res.Accepted) != 1 {
		t.Fatalf("accepted = %+v, want the block (all-day events are not busy)", res.Accepted)
	}
}

func TestArbitrateScheduleEmptyInputs(t *testing.T) {
	t.Parallel()
	res := ArbitrateSchedule(nil, map[string]struct{}{}, nil)
	if len(res.Accepted) != 0 || len(res.Rejected) != 0 {
		t.Fatalf("result = %+v, want empty (empty proposal is not an error)", res)
	}

	res = ArbitrateSchedule([]model.ScheduledBlock{block("t1", at(9, 0), at(10, 0))}, map[string]struct{}{}, nil)
	if len(res.Accepted) != 0 {
		t.Fatalf("accepted = %+v, want none with an empty valid set", res.Accepted)
	}
}

func TestArbitrateScheduleIdempotent(t *testing.T) {
	t.Parallel()
	valid := TaskIDSet(pendingTasks("t1", "t2"))
	proposed := []model.ScheduledBlock{
		block("t2", at(11, 0), at(12, 0)),
		block("t1", at(9, 0), at(10, 0)),
	}

	a := ArbitrateSchedule(proposed, valid, nil)
	b := ArbitrateSchedule(proposed, valid, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different results")
	}
	if len(a.Accepted) != 2 || a.Accepted[0].TaskID != "t1" {
		t.Fatalf("accepted = %+v, want t1 then t2", a.Accepted)
	}
}
