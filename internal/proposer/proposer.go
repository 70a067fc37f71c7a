// Package proposer abstracts the external reasoning service.
//
// Proposals are untrusted input: the service may be down, time out, or return
// hallucinated task ids and unparseable instants. Nothing here repairs a
// proposal; repair is the arbiters' job. This package only moves data across
// the network and keeps the serialization boundary out of the pure core.
package proposer

import (
	"context"

	"nextup/internal/model"
)

// Proposer produces untrusted candidate decisions from a planning context.
type Proposer interface {
	// ProposeSchedule asks for a full set of (task -> time block) placements.
	ProposeSchedule(ctx context.Context, pc model.PlanContext) ([]model.ScheduledBlock, error)

	// ProposeRecommendation asks for a single "do this next" choice.
	ProposeRecommendation(ctx context.Context, pc model.PlanContext) (model.Recommendation, error)
}
