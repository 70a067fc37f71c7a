package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nextup/internal/model"
	logx "nextup/pkg/logx"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "store")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestFileTaskRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)

	deadline := time.Date(2025, 9, 10, 17, 0, 0, 0, time.UTC)
	stored, err := st.PutTask(ctx, model.Task{
		Title:        "write report",
		Priority:     model.PriorityImportant,
		Energy:       model.EnergyHigh,
		LocationTags: []string{"office"},
		Deadline:     &deadline,
	})
	if err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("PutTask did not assign an id")
	}
	if stored.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending default", stored.Status)
	}

	if _, err := st.PutTask(ctx, model.Task{ID: "done", Title: "done", Status: model.StatusCompleted}); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	pending, err := st.PendingTasks(ctx)
	if err != nil {
		t.Fatalf("PendingTasks: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %+v, want just the pending task", pending)
	}
	got := pending[0]
	if got.Title != "write report" || got.Priority != model.PriorityImportant {
		t.Fatalf("task = %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Fatalf("deadline = %v, want %v", got.Deadline, deadline)
	}
}

func TestFileSetTaskScheduled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)

	stored, err := st.PutTask(ctx, model.Task{Title: "deep work"})
	if err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	at := time.Date(2025, 9, 3, 9, 0, 0, 0, time.UTC)
	if err := st.SetTaskScheduled(ctx, stored.ID, at); err != nil {
		t.Fatalf("SetTaskScheduled: %v", err)
	}

	pending, err := st.PendingTasks(ctx)
	if err != nil {
		t.Fatalf("PendingTasks: %v", err)
	}
	if pending[0].ScheduledFor == nil || !pending[0].ScheduledFor.Equal(at) {
		t.Fatalf("scheduled_for = %v, want %v", pending[0].ScheduledFor, at)
	}

	if err := st.SetTaskScheduled(ctx, "missing", at); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestFileEventsAndRecurrences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := openTestStore(t)

	day := func(d, h int) time.Time { return time.Date(2025, 9, d, h, 0, 0, 0, time.UTC) }

	oneOff := model.CalendarEvent{
		ID: "e1", Source: model.SourceExternalA, Title: "dentist",
		StartTime: day(2, 10), EndTime: day(2, 11),
	}
	if err := st.PutEvent(ctx, oneOff, nil); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}

	until := day(30, 0)
	weekly := model.CalendarEvent{
		ID: "e2", Source: model.SourceInternal, Title: "standup",
		StartTime: day(1, 9), EndTime: day(1, 9).Add(30 * time.Minute),
	}
	rule := model.RecurrenceRule{
		Type:     model.RecurWeekly,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
		Until:    &until,
	}
	if err := st.PutEvent(ctx, weekly, &rule); err != nil {
		t.Fatalf("PutEvent: %v", err)
	}

	events, err := st.EventsBetween(ctx, day(2, 0), day(3, 0))
	if err != nil {
		t.Fatalf("EventsBetween: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("events = %+v, want only the one-off", events)
	}

	recurring, err := st.RecurringEvents(ctx)
	if err != nil {
		t.Fatalf("RecurringEvents: %v", err)
	}
	if len(recurring) != 1 {
		t.Fatalf("recurring = %+v", recurring)
	}
	gotRule := recurring[0].Rule
	if gotRule.Type != model.RecurWeekly || len(gotRule.Weekdays) != 2 {
		t.Fatalf("rule = %+v", gotRule)
	}
	if gotRule.Until == nil || !gotRule.Until.Equal(until) {
		t.Fatalf("until = %v, want %v", gotRule.Until, until)
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store")

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := st.PutTask(ctx, model.Task{ID: "t1", Title: "persisted"}); err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	pending, err := st2.PendingTasks(ctx)
	if err != nil {
		t.Fatalf("PendingTasks: %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "persisted" {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{}, logx.Nop()); err != ErrDisabled {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
	if _, err := Open(Config{Driver: "bolt"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
