package storage

import (
	"encoding/json"
	"time"

	"nextup/internal/model"
)

// Wire representations shared by the file driver and the sqlite recur column.
// Times are RFC3339Nano strings; weekdays are ints (Sunday=0).

type ruleJSON struct {
	Type     string `json:"type"`
	Weekdays []int  `json:"weekdays,omitempty"`
	Until    string `json:"until,omitempty"`
}

func encodeRule(r *model.RecurrenceRule) (string, error) {
	if r == nil {
		return "", nil
	}
	w := ruleJSON{Type: string(r.Type)}
	for _, d := range r.Weekdays {
		w.Weekdays = append(w.Weekdays, int(d))
	}
	if r.Until != nil {
		w.Until = r.Until.Format(time.RFC3339Nano)
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRule(s string) (*model.RecurrenceRule, error) {
	if s == "" {
		return nil, nil
	}
	var w ruleJSON
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, err
	}
	r := &model.RecurrenceRule{Type: model.RecurrenceType(w.Type)}
	for _, d := range w.Weekdays {
		r.Weekdays = append(r.Weekdays, time.Weekday(d))
	}
	if w.Until != "" {
		t, err := time.Parse(time.RFC3339Nano, w.Until)
		if err != nil {
			return nil, err
		}
		r.Until = &t
	}
	return r, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
