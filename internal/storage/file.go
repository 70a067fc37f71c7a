package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nextup/internal/model"
	logx "nextup/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.tasks.json   (snapshot, rewritten on every task write)
//   - <prefix>.events.json  (snapshot, rewritten on every event write)
//   - <prefix>.plans.jsonl  (append-only JSON Lines)
//
// Snapshot rewrites are fine at the scale of a personal planner; the sqlite
// driver is the one meant for real deployments.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	tasksPath  string
	eventsPath string
	plansPath  string

	tasks  []taskJSON
	events []eventJSON
}

type taskJSON struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Priority         string   `json:"priority"`
	Energy           string   `json:"energy,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	Category         string   `json:"category,omitempty"`
	LocationTags     []string `json:"location_tags,omitempty"`
	Deadline         string   `json:"deadline,omitempty"`
	ScheduledFor     string   `json:"scheduled_for,omitempty"`
	Status           string   `json:"status"`
}

type eventJSON struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	ExternalID  string `json:"external_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day,omitempty"`
	Recur       string `json:"recur,omitempty"`
}

type planJSON struct {
	ID        string `json:"id"`
	At        string `json:"at"`
	TaskID    string `json:"task_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Reasoning string `json:"reasoning,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{
		log:        log,
		tasksPath:  prefix + ".tasks.json",
		eventsPath: prefix + ".events.json",
		plansPath:  prefix + ".plans.jsonl",
	}
	if err := loadSnapshot(s.tasksPath, &s.tasks); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if err := loadSnapshot(s.eventsPath, &s.events); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return s, nil
}

func loadSnapshot[T any](path string, into *[]T) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

func writeSnapshot[T any](path string, items []T) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) PutTask(ctx context.Context, t model.Task) (model.Task, error) {
	_ = ctx
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w := taskToJSON(t)
	replaced := false
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		s.tasks = append(s.tasks, w)
	}
	return t, writeSnapshot(s.tasksPath, s.tasks)
}

func (s *fileStore) PendingTasks(ctx context.Context) ([]model.Task, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, w := range s.tasks {
		if w.Status != string(model.StatusPending) {
			continue
		}
		t, err := taskFromJSON(w)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fileStore) SetTaskScheduled(ctx context.Context, taskID string, at time.Time) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].ScheduledFor = formatTime(at)
			return writeSnapshot(s.tasksPath, s.tasks)
		}
	}
	return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
}

func (s *fileStore) PutEvent(ctx context.Context, ev model.CalendarEvent, rule *model.RecurrenceRule) error {
	_ = ctx
	recur, err := encodeRule(rule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w := eventToJSON(ev)
	w.Recur = recur
	replaced := false
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		s.events = append(s.events, w)
	}
	return writeSnapshot(s.eventsPath, s.events)
}

func (s *fileStore) EventsBetween(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.CalendarEvent
	for _, w := range s.events {
		if w.Recur != "" {
			continue
		}
		ev, err := eventFromJSON(w)
		if err != nil {
			return nil, err
		}
		if ev.Overlaps(from, to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *fileStore) RecurringEvents(ctx context.Context) ([]RecurringEvent, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []RecurringEvent
	for _, w := range s.events {
		if w.Recur == "" {
			continue
		}
		ev, err := eventFromJSON(w)
		if err != nil {
			return nil, err
		}
		rule, err := decodeRule(w.Recur)
		if err != nil {
			return nil, err
		}
		out = append(out, RecurringEvent{Event: ev, Rule: *rule})
	}
	return out, nil
}

func (s *fileStore) AppendPlan(ctx context.Context, e PlanEntry) error {
	_ = ctx
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b, err := json.Marshal(planJSON{
		ID:        e.ID,
		At:        formatTime(e.At),
		TaskID:    e.TaskID,
		Start:     formatTime(e.Start),
		End:       formatTime(e.End),
		Reasoning: e.Reasoning,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.plansPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

func taskToJSON(t model.Task) taskJSON {
	return taskJSON{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Priority:         string(t.Priority),
		Energy:           string(t.Energy),
		EstimatedMinutes: t.EstimatedMinutes,
		Category:         t.Category,
		LocationTags:     t.LocationTags,
		Deadline:         formatTimePtr(t.Deadline),
		ScheduledFor:     formatTimePtr(t.ScheduledFor),
		Status:           string(t.Status),
	}
}

func taskFromJSON(w taskJSON) (model.Task, error) {
	deadline, err := parseTimePtr(w.Deadline)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s deadline: %w", w.ID, err)
	}
	scheduled, err := parseTimePtr(w.ScheduledFor)
	if err != nil {
		return model.Task{}, fmt.Errorf("task %s scheduled_for: %w", w.ID, err)
	}
	return model.Task{
		ID:               w.ID,
		Title:            w.Title,
		Description:      w.Description,
		Priority:         model.Priority(w.Priority),
		Energy:           model.EnergyLevel(w.Energy),
		EstimatedMinutes: w.EstimatedMinutes,
		Category:         w.Category,
		LocationTags:     w.LocationTags,
		Deadline:         deadline,
		ScheduledFor:     scheduled,
		Status:           model.TaskStatus(w.Status),
	}, nil
}

func eventToJSON(ev model.CalendarEvent) eventJSON {
	return eventJSON{
		ID:          ev.ID,
		Source:      string(ev.Source),
		ExternalID:  ev.ExternalID,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		StartTime:   formatTime(ev.StartTime),
		EndTime:     formatTime(ev.EndTime),
		AllDay:      ev.AllDay,
	}
}

func eventFromJSON(w eventJSON) (model.CalendarEvent, error) {
	start, err := parseTime(w.StartTime)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("event %s start: %w", w.ID, err)
	}
	end, err := parseTime(w.EndTime)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("event %s end: %w", w.ID, err)
	}
	return model.CalendarEvent{
		ID:          w.ID,
		Source:      model.EventSource(w.Source),
		ExternalID:  w.ExternalID,
		Title:       w.Title,
		Description: w.Description,
		Location:    w.Location,
		StartTime:   start,
		EndTime:     end,
		AllDay:      w.AllDay,
	}, nil
}
