package proposer

import (
	"time"

	"nextup/internal/model"
)

// Wire types for the reasoning service. This is the single place where the
// typed planning context turns into JSON and back.
//
// Instants travel as RFC3339 strings. On the way in, a block with an
// unparseable instant keeps a zero time rather than failing the whole
// response: per-block garbage is arbitration's problem, not a transport error.

type contextWire struct {
	Mode       string      `json:"mode"` // "schedule" | "recommend"
	Now        string      `json:"now"`
	Timezone   string      `json:"timezone,omitempty"`
	Energy     string      `json:"energy,omitempty"`
	Location   string      `json:"location,omitempty"`
	Tasks      []taskWire  `json:"tasks"`
	Events     []eventWire `json:"events,omitempty"`
	FreeBlocks []blockWire `json:"free_blocks,omitempty"`
}

type taskWire struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Priority         string `json:"priority"`
	Energy           string `json:"energy,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes,omitempty"`
	Category         string `json:"category,omitempty"`
	Deadline         string `json:"deadline,omitempty"`
}

type eventWire struct {
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	AllDay bool   `json:"all_day,omitempty"`
}

type blockWire struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type scheduleRespWire struct {
	Blocks []scheduledBlockWire `json:"blocks"`
}

type scheduledBlockWire struct {
	TaskID    string `json:"task_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Reasoning string `json:"reasoning,omitempty"`
}

type recommendRespWire struct {
	TaskID       string            `json:"task_id"`
	Reasoning    string            `json:"reasoning,omitempty"`
	Alternatives []alternativeWire `json:"alternatives,omitempty"`
}

type alternativeWire struct {
	TaskID    string `json:"task_id"`
	Reasoning string `json:"reasoning,omitempty"`
}

func encodeContext(mode string, pc model.PlanContext) contextWire {
	w := contextWire{
		Mode:     mode,
		Now:      pc.Now.Format(time.RFC3339),
		Timezone: pc.Timezone,
		Energy:   string(pc.Energy),
	}
	if pc.Location != nil {
		w.Location = pc.Location.Name
	}
	for _, t := range pc.Tasks {
		tw := taskWire{
			ID:               t.ID,
			Title:            t.Title,
			Description:      t.Description,
			Priority:         string(t.Priority),
			Energy:           string(t.Energy),
			EstimatedMinutes: t.EstimatedMinutes,
			Category:         t.Category,
		}
		if t.Deadline != nil {
			tw.Deadline = t.Deadline.Format(time.RFC3339)
		}
		w.Tasks = append(w.Tasks, tw)
	}
	for _, ev := range pc.Events {
		w.Events = append(w.Events, eventWire{
			Title:  ev.Title,
			Start:  ev.StartTime.Format(time.RFC3339),
			End:    ev.EndTime.Format(time.RFC3339),
			AllDay: ev.AllDay,
		})
	}
	for _, b := range pc.FreeBlocks {
		w.FreeBlocks = append(w.FreeBlocks, blockWire{
			Start:           b.Start.Format(time.RFC3339),
			End:             b.End.Format(time.RFC3339),
			DurationMinutes: b.DurationMinutes(),
		})
	}
	return w
}

func decodeBlocks(w scheduleRespWire) []model.ScheduledBlock {
	out := make([]model.ScheduledBlock, 0, len(w.Blocks))
	for _, b := range w.Blocks {
		out = append(out, model.ScheduledBlock{
			TaskID:    b.TaskID,
			Start:     lenientTime(b.Start),
			End:       lenientTime(b.End),
			Reasoning: b.Reasoning,
		})
	}
	return out
}

func decodeRecommendation(w recommendRespWire) model.Recommendation {
	rec := model.Recommendation{TaskID: w.TaskID, Reasoning: w.Reasoning}
	for _, a := range w.Alternatives {
		rec.Alternatives = append(rec.Alternatives, model.Alternative{
			TaskID:    a.TaskID,
			Reasoning: a.Reasoning,
		})
	}
	return rec
}

// lenientTime returns the zero time for garbage input instead of an error.
func lenientTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
