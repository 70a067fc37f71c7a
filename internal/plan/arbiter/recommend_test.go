package arbiter

import (
	"errors"
	"testing"
	"time"

	"nextup/internal/model"
)

func task(id string, p model.Priority, deadline *time.Time) model.Task {
	return model.Task{ID: id, Title: id, Priority: p, Deadline: deadline, Status: model.StatusPending}
}

func deadline(daysFromNow int) *time.Time {
	d := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC).AddDate(0, 0, daysFromNow)
	return &d
}

func TestRecommendZeroPendingIsError(t *testing.T) {
	t.Parallel()
	_, err := ArbitrateRecommendation(&model.Recommendation{TaskID: "t1"}, nil)
	if !errors.Is(err, ErrNoPendingTasks) {
		t.Fatalf("err = %v, want ErrNoPendingTasks", err)
	}
}

func TestRecommendSingleTaskShortcut(t *testing.T) {
	t.Parallel()
	pending := []model.Task{task("only", model.PrioritySomeday, nil)}

	// Even a proposal naming another task is ignored for the trivial case.
	res, err := ArbitrateRecommendation(&model.Recommendation{
		TaskID:       "other",
		Alternatives: []model.Alternative{{TaskID: "only"}},
	}, pending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TaskID != "only" {
		t.Fatalf("TaskID = %s, want only", res.TaskID)
	}
	if res.Reasoning != "only pending task" {
		t.Fatalf("Reasoning = %q", res.Reasoning)
	}
	if len(res.Alternatives) != 0 {
		t.Fatalf("Alternatives = %+v, want empty", res.Alternatives)
	}
}

func TestRecommendValidProposalKept(t *testing.T) {
	t.Parallel()
	pending := []model.Task{
		task("t1", model.PriorityNormal, nil),
		task("t2", model.PriorityUrgent, nil),
		task("t3", model.PrioritySomeday, nil),
	}
	proposed := &model.Recommendation{
		TaskID:    "t3",
		Reasoning: "matches your low energy right now",
		Alternatives: []model.Alternative{
			{TaskID: "t1", Reasoning: "also quick"},
		},
	}

	res, err := ArbitrateRecommendation(proposed, pending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fallback {
		t.Fatal("valid proposal marked as fallback")
	}
	if res.TaskID != "t3" || res.Reasoning != proposed.Reasoning {
		t.Fatalf("result = %+v, want the proposal preserved", res.Recommendation)
	}
	if len(res.Alternatives) != 1 || res.Alternatives[0].TaskID != "t1" {
		t.Fatalf("Alternatives = %+v", res.Alternatives)
	}
}

func TestRecommendHallucinatedFallback(t *testing.T) {
	t.Parallel()
	pending := []model.Task{
		task("t1", model.PriorityNormal, nil),
		task("t2", model.PrioritySomeday, nil),
		task("t3", model.PriorityUrgent, deadline(1)),
		task("t4", model.PriorityNormal, deadline(3)),
		task("t5", model.PrioritySomeday, nil),
	}

	res, err := ArbitrateRecommendation(&model.Recommendation{TaskID: "nope"}, pending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback for hallucinated task id")
	}
	if res.TaskID != "t3" {
		t.Fatalf("TaskID = %s, want the urgent task t3, not input order", res.TaskID)
	}
	if res.Reasoning != "highest priority task with the nearest deadline" {
		t.Fatalf("Reasoning = %q", res.Reasoning)
	}
}

func TestRecommendFallbackOrdering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pending []model.Task
		want    string
	}{
		{
			name: "priority beats deadline",
			pending: []model.Task{
				task("soon", model.PriorityNormal, deadline(0)),
				task("urgent", model.PriorityUrgent, nil),
			},
			want: "urgent",
		},
		{
			name: "deadline breaks priority tie",
			pending: []model.Task{
				task("later", model.PriorityImportant, deadline(5)),
				task("sooner", model.PriorityImportant, deadline(2)),
			},
			want: "sooner",
		},
		{
			name: "deadlined before undeadlined",
			pending: []model.Task{
				task("open", model.PriorityNormal, nil),
				task("dated", model.PriorityNormal, deadline(10)),
			},
			want: "dated",
		},
		{
			name: "input order is the final tie-break",
			pending: []model.Task{
				task("first", model.PrioritySomeday, nil),
				task("second", model.PrioritySomeday, nil),
			},
			want: "first",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := ArbitrateRecommendation(nil, tt.pending)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.TaskID != tt.want {
				t.Fatalf("TaskID = %s, want %s", res.TaskID, tt.want)
			}
			if !res.Fallback {
				t.Fatal("nil proposal must be reported as fallback")
			}
		})
	}
}

func TestRecommendAlternativesFiltered(t *testing.T) {
	t.Parallel()
	pending := []model.Task{
		task("t1", model.PriorityNormal, nil),
		task("t2", model.PriorityNormal, nil),
		task("t3", model.PriorityNormal, nil),
		task("t4", model.PriorityNormal, nil),
	}
	proposed := &model.Recommendation{
		TaskID: "t1",
		Alternatives: []model.Alternative{
			{TaskID: "t1"},    // equals chosen: dropped
			{TaskID: "ghost"}, // unknown: dropped, not substituted
			{TaskID: "t2"},
			{TaskID: "t3"},
			{TaskID: "t4"}, // beyond the cap of 2
		},
	}

	res, err := ArbitrateRecommendation(proposed, pending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Alternatives) != 2 {
		t.Fatalf("Alternatives = %+v, want 2", res.Alternatives)
	}
	if res.Alternatives[0].TaskID != "t2" || res.Alternatives[1].TaskID != "t3" {
		t.Fatalf("Alternatives = %+v, want t2 then t3", res.Alternatives)
	}
}

func TestRecommendTotality(t *testing.T) {
	t.Parallel()
	pending := []model.Task{
		task("a", model.PrioritySomeday, nil),
		task("b", model.PriorityNormal, deadline(4)),
		task("c", model.PriorityImportant, nil),
	}
	proposals := []*model.Recommendation{
		nil,
		{TaskID: ""},
		{TaskID: "hallucination"},
		{TaskID: "b"},
	}

	valid := TaskIDSet(pending)
	for i, p := range proposals {
		res, err := ArbitrateRecommendation(p, pending)
		if err != nil {
			t.Fatalf("proposal %d: unexpected error: %v", i, err)
		}
		if _, ok := valid[res.TaskID]; !ok {
			t.Fatalf("proposal %d: result %q is not a pending task", i, res.TaskID)
		}
	}
}
