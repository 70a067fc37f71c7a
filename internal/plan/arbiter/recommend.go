package arbiter

import (
	"errors"
	"sort"

	"nextup/internal/model"
)

// ErrNoPendingTasks signals a caller-contract violation: recommendation
// arbitration requires at least one pending task.
var ErrNoPendingTasks = errors.New("no pending tasks")

// maxAlternatives bounds the runner-up list on a recommendation.
const maxAlternatives = 2

const (
	reasonOnlyPending  = "only pending task"
	reasonHighest      = "highest priority task"
	reasonNearDeadline = "highest priority task with the nearest deadline"
)

// RecommendationResult is the validated recommendation plus whether the
// proposed choice had to be replaced by the deterministic fallback.
type RecommendationResult struct {
	model.Recommendation

	// Fallback is true when the proposal was absent or named an unknown task.
	Fallback bool
}

// ArbitrateRecommendation validates a proposed "do this next" choice against
// the pending task list and repairs it deterministically when invalid.
//
// A nil proposal is treated the same as a hallucinated one: the fallback
// ranking (priority, then nearest deadline, then input order) picks the task.
// For a non-empty pending list the result always names a pending task.
func ArbitrateRecommendation(proposed *model.Recommendation, pending []model.Task) (RecommendationResult, error) {
	if len(pending) == 0 {
		return RecommendationResult{}, ErrNoPendingTasks
	}

	// Trivial case: one pending task needs no arbitration (and no proposal).
	if len(pending) == 1 {
		return RecommendationResult{
			Recommendation: model.Recommendation{
				TaskID:    pending[0].ID,
				Reasoning: reasonOnlyPending,
			},
		}, nil
	}

	valid := TaskIDSet(pending)

	var rec model.Recommendation
	fallback := false
	if proposed == nil || !member(valid, proposed.TaskID) {
		rec = fallbackRecommendation(pending)
		fallback = true
	} else {
		rec = model.Recommendation{TaskID: proposed.TaskID, Reasoning: proposed.Reasoning}
	}

	if proposed != nil {
		rec.Alternatives = filterAlternatives(proposed.Alternatives, valid, rec.TaskID)
	}

	return RecommendationResult{Recommendation: rec, Fallback: fallback}, nil
}

// fallbackRecommendation ranks pending tasks by priority, breaks ties by
// nearest non-nil deadline (deadlined tasks before undeadlined), and keeps
// input order beyond that.
func fallbackRecommendation(pending []model.Task) model.Recommendation {
	ranked := make([]model.Task, len(pending))
	copy(ranked, pending)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Priority.Rank(), ranked[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := ranked[i].Deadline, ranked[j].Deadline
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})

	best := ranked[0]
	reason := reasonHighest
	if best.Deadline != nil {
		reason = reasonNearDeadline
	}
	return model.Recommendation{TaskID: best.ID, Reasoning: reason}
}

// filterAlternatives keeps valid, non-chosen alternatives and truncates to
// maxAlternatives. Invalid entries are dropped, never substituted.
func filterAlternatives(alts []model.Alternative, valid map[string]struct{}, chosen string) []model.Alternative {
	var out []model.Alternative
	for _, a := range alts {
		if a.TaskID == chosen || !member(valid, a.TaskID) {
			continue
		}
		out = append(out, a)
		if len(out) == maxAlternatives {
			break
		}
	}
	return out
}

func member(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}
