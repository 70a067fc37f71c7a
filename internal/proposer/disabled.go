package proposer

import (
	"context"
	"errors"

	"nextup/internal/model"
)

// ErrNotConfigured is returned by the disabled proposer. The planner treats
// any proposer error as "no proposal", so running without a reasoning service
// degrades to deterministic fallbacks instead of failing.
var ErrNotConfigured = errors.New("proposer not configured")

type disabled struct{}

// Disabled returns a Proposer that always reports ErrNotConfigured.
func Disabled() Proposer { return disabled{} }

func (disabled) ProposeSchedule(ctx context.Context, pc model.PlanContext) ([]model.ScheduledBlock, error) {
	return nil, ErrNotConfigured
}

func (disabled) ProposeRecommendation(ctx context.Context, pc model.PlanContext) (model.Recommendation, error) {
	return model.Recommendation{}, ErrNotConfigured
}
