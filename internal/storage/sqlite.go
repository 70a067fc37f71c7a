package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nextup/internal/model"
	logx "nextup/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) PutTask(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}

	tags, err := json.Marshal(t.LocationTags)
	if err != nil {
		return model.Task{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, title, description, priority, energy, estimated_minutes,
		                   category, location_tags, deadline, scheduled_for, status, seq)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,
		        COALESCE((SELECT seq FROM tasks WHERE id = ?), (SELECT COALESCE(MAX(seq),0)+1 FROM tasks)))
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, description=excluded.description,
		   priority=excluded.priority, energy=excluded.energy,
		   estimated_minutes=excluded.estimated_minutes, category=excluded.category,
		   location_tags=excluded.location_tags, deadline=excluded.deadline,
		   scheduled_for=excluded.scheduled_for, status=excluded.status`,
		t.ID, t.Title, nullStr(t.Description), string(t.Priority), string(t.Energy),
		nullInt(t.EstimatedMinutes), nullStr(t.Category), string(tags),
		nullStr(formatTimePtr(t.Deadline)), nullStr(formatTimePtr(t.ScheduledFor)),
		string(t.Status), t.ID,
	)
	return t, err
}

func (s *sqliteStore) PendingTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, priority, energy, estimated_minutes,
		        category, location_tags, deadline, scheduled_for, status
		 FROM tasks WHERE status = ? ORDER BY seq`, string(model.StatusPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		var desc, cat, tags, dl, sched sql.NullString
		var est sql.NullInt64
		var priority, energy, status string
		if err := rows.Scan(&t.ID, &t.Title, &desc, &priority, &energy, &est,
			&cat, &tags, &dl, &sched, &status); err != nil {
			return nil, err
		}
		t.Description = desc.String
		t.Category = cat.String
		t.Priority = model.Priority(priority)
		t.Energy = model.EnergyLevel(energy)
		t.EstimatedMinutes = int(est.Int64)
		t.Status = model.TaskStatus(status)
		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &t.LocationTags); err != nil {
				return nil, fmt.Errorf("task %s location_tags: %w", t.ID, err)
			}
		}
		if t.Deadline, err = parseTimePtr(dl.String); err != nil {
			return nil, fmt.Errorf("task %s deadline: %w", t.ID, err)
		}
		if t.ScheduledFor, err = parseTimePtr(sched.String); err != nil {
			return nil, fmt.Errorf("task %s scheduled_for: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SetTaskScheduled(ctx context.Context, taskID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET scheduled_for = ? WHERE id = ?`, formatTime(at), taskID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) PutEvent(ctx context.Context, ev model.CalendarEvent, rule *model.RecurrenceRule) error {
	recur, err := encodeRule(rule)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events(id, source, external_id, title, description, location,
		                    start_time, end_time, all_day, recur)
		 VALUES(?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   source=excluded.source, external_id=excluded.external_id,
		   title=excluded.title, description=excluded.description,
		   location=excluded.location, start_time=excluded.start_time,
		   end_time=excluded.end_time, all_day=excluded.all_day, recur=excluded.recur`,
		ev.ID, string(ev.Source), nullStr(ev.ExternalID), ev.Title,
		nullStr(ev.Description), nullStr(ev.Location),
		formatTime(ev.StartTime), formatTime(ev.EndTime), boolInt(ev.AllDay), nullStr(recur),
	)
	return err
}

func (s *sqliteStore) EventsBetween(ctx context.Context, from, to time.Time) ([]model.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, external_id, title, description, location,
		        start_time, end_time, all_day
		 FROM events
		 WHERE recur IS NULL AND start_time < ? AND end_time > ?
		 ORDER BY start_time`,
		formatTime(to), formatTime(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CalendarEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RecurringEvents(ctx context.Context) ([]RecurringEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, external_id, title, description, location,
		        start_time, end_time, all_day, recur
		 FROM events WHERE recur IS NOT NULL ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecurringEvent
	for rows.Next() {
		var (
			ev                   model.CalendarEvent
			extID, desc, locName sql.NullString
			start, end           string
			allDay               int
			recur                string
		)
		if err := rows.Scan(&ev.ID, (*string)(&ev.Source), &extID, &ev.Title, &desc, &locName,
			&start, &end, &allDay, &recur); err != nil {
			return nil, err
		}
		ev.ExternalID = extID.String
		ev.Description = desc.String
		ev.Location = locName.String
		ev.AllDay = allDay != 0
		if ev.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("event %s start: %w", ev.ID, err)
		}
		if ev.EndTime, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("event %s end: %w", ev.ID, err)
		}
		rule, err := decodeRule(recur)
		if err != nil {
			return nil, fmt.Errorf("event %s recur: %w", ev.ID, err)
		}
		out = append(out, RecurringEvent{Event: ev, Rule: *rule})
	}
	return out, rows.Err()
}

func (s *sqliteStore) AppendPlan(ctx context.Context, e PlanEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans(id, at, task_id, start_time, end_time, reasoning)
		 VALUES(?,?,?,?,?,?)`,
		e.ID, formatTime(e.At), e.TaskID, formatTime(e.Start), formatTime(e.End), nullStr(e.Reasoning),
	)
	return err
}

func scanEvent(rows *sql.Rows) (model.CalendarEvent, error) {
	var (
		ev                   model.CalendarEvent
		extID, desc, locName sql.NullString
		start, end           string
		allDay               int
	)
	if err := rows.Scan(&ev.ID, (*string)(&ev.Source), &extID, &ev.Title, &desc, &locName,
		&start, &end, &allDay); err != nil {
		return model.CalendarEvent{}, err
	}
	ev.ExternalID = extID.String
	ev.Description = desc.String
	ev.Location = locName.String
	ev.AllDay = allDay != 0

	var err error
	if ev.StartTime, err = parseTime(start); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("event %s start: %w", ev.ID, err)
	}
	if ev.EndTime, err = parseTime(end); err != nil {
		return model.CalendarEvent{}, fmt.Errorf("event %s end: %w", ev.ID, err)
	}
	return ev, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
