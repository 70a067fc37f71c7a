package proposer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"nextup/internal/model"
	logx "nextup/pkg/logx"
)

// Config for the HTTP client.
type Config struct {
	Endpoint   string
	Timeout    time.Duration // per attempt; 0 means 10s
	RetryMax   int           // additional attempts after the first
	RatePerSec int           // 0 disables client-side rate limiting
}

// HTTP is the production Proposer: one POST per proposal, bounded retries
// with exponential backoff and jitter, and an optional client-side rate
// limiter so replan storms cannot hammer the reasoning service.
type HTTP struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

var _ Proposer = (*HTTP)(nil)

func NewHTTP(cfg Config, log logx.Logger) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("proposer.endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}
	return &HTTP{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		log:     log,
	}, nil
}

func (h *HTTP) ProposeSchedule(ctx context.Context, pc model.PlanContext) ([]model.ScheduledBlock, error) {
	var resp scheduleRespWire
	if err := h.post(ctx, encodeContext("schedule", pc), &resp); err != nil {
		return nil, err
	}
	return decodeBlocks(resp), nil
}

func (h *HTTP) ProposeRecommendation(ctx context.Context, pc model.PlanContext) (model.Recommendation, error) {
	var resp recommendRespWire
	if err := h.post(ctx, encodeContext("recommend", pc), &resp); err != nil {
		return model.Recommendation{}, err
	}
	return decodeRecommendation(resp), nil
}

func (h *HTTP) post(ctx context.Context, req contextWire, into any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	maxAttempts := h.cfg.RetryMax + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = h.once(ctx, body, into)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == maxAttempts {
			break
		}

		delay := retryDelay(attempt)
		h.log.Debug("proposer call failed; retrying",
			logx.Err(lastErr), logx.Int("attempt", attempt), logx.Duration("delay", delay))
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		}
	}
	return lastErr
}

func (h *HTTP) once(ctx context.Context, body []byte, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return &transientError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &transientError{fmt.Errorf("proposer returned %s", resp.Status)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("proposer returned %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &transientError{err}
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("malformed proposer response: %w", err)
	}
	return nil
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// retryDelay computes the wait before the next attempt: 500ms base doubled
// per attempt, jittered 0.7..1.3, capped at 10s.
func retryDelay(attempt int) time.Duration {
	const (
		base = 500 * time.Millisecond
		maxD = 10 * time.Second
	)
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	j := 0.7 + rand.Float64()*0.6
	d = time.Duration(float64(d) * j)
	if d > maxD {
		d = maxD
	}
	return d
}
