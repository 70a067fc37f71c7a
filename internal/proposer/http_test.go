package proposer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nextup/internal/model"
	logx "nextup/pkg/logx"
)

func testContext() model.PlanContext {
	now := time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC)
	return model.PlanContext{
		Now:      now,
		Timezone: "UTC",
		Energy:   model.EnergyHigh,
		Tasks: []model.Task{
			{ID: "t1", Title: "write report", Priority: model.PriorityImportant, Status: model.StatusPending},
		},
		FreeBlocks: []model.FreeTimeBlock{
			{Start: now, End: now.Add(2 * time.Hour)},
		},
	}
}

func TestProposeSchedule(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"blocks":[
			{"task_id":"t1","start":"2025-09-02T09:00:00Z","end":"2025-09-02T10:00:00Z","reasoning":"morning focus"},
			{"task_id":"t2","start":"not-a-time","end":"2025-09-02T11:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	p, err := NewHTTP(Config{Endpoint: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	blocks, err := p.ProposeSchedule(context.Background(), testContext())
	if err != nil {
		t.Fatalf("ProposeSchedule: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %+v", blocks)
	}
	if blocks[0].TaskID != "t1" || blocks[0].Reasoning != "morning focus" {
		t.Fatalf("block 0 = %+v", blocks[0])
	}
	// Garbage instants come through as zero times for arbitration to reject.
	if !blocks[1].Start.IsZero() {
		t.Fatalf("block 1 start = %v, want zero for unparseable input", blocks[1].Start)
	}
}

func TestProposeRecommendation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"task_id":"t1","reasoning":"quick win","alternatives":[{"task_id":"t9"}]}`))
	}))
	defer srv.Close()

	p, err := NewHTTP(Config{Endpoint: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	rec, err := p.ProposeRecommendation(context.Background(), testContext())
	if err != nil {
		t.Fatalf("ProposeRecommendation: %v", err)
	}
	if rec.TaskID != "t1" || len(rec.Alternatives) != 1 {
		t.Fatalf("rec = %+v", rec)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"blocks":[]}`))
	}))
	defer srv.Close()

	p, err := NewHTTP(Config{Endpoint: srv.URL, RetryMax: 3}, logx.Nop())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	if _, err := p.ProposeSchedule(context.Background(), testContext()); err != nil {
		t.Fatalf("ProposeSchedule: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewHTTP(Config{Endpoint: srv.URL, RetryMax: 3}, logx.Nop())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}

	if _, err := p.ProposeSchedule(context.Background(), testContext()); err == nil {
		t.Fatal("expected error for 4xx response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 (4xx is not retryable)", got)
	}
}

func TestMalformedBodyIsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"blocks": oops`))
	}))
	defer srv.Close()

	p, err := NewHTTP(Config{Endpoint: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	if _, err := p.ProposeSchedule(context.Background(), testContext()); err == nil {
		t.Fatal("expected error for malformed envelope")
	}
}
