package spaced_repetition

import (
	"fmt"
	"math"
	"time"

	"github.com/example/recallengine/pkg/models"
)

// ReviewPolicy is a scheduling policy: given the freshly updated memory state
// (and the policy's own parallel state, if it keeps one) and the review's
// response quality, it decides the next review date. Implementations may
// mutate ps; they must not touch state.
type ReviewPolicy interface {
	Kind() models.PolicyKind
	Update(state *models.MemoryState, ps *models.PolicyState, quality float64, now time.Time) time.Time
}

// DefaultPolicy is the forgetting-curve interval calculator. It keeps no
// parallel state; everything it needs lives on MemoryState.
type DefaultPolicy struct {
	Config IntervalConfig
}

// Kind implements ReviewPolicy.
func (p DefaultPolicy) Kind() models.PolicyKind { return models.PolicyDefault }

// Update implements ReviewPolicy. ps is ignored.
func (p DefaultPolicy) Update(state *models.MemoryState, _ *models.PolicyState, quality float64, now time.Time) time.Time {
	return NextReviewDate(state, quality, now, p.Config)
}

// PolicyFor returns the policy implementation for a kind, with default
// tuning. Unknown kinds are an error; callers decide the fallback.
func PolicyFor(kind models.PolicyKind, cfg IntervalConfig) (ReviewPolicy, error) {
	switch kind {
	case models.PolicyDefault, "":
		return DefaultPolicy{Config: cfg}, nil
	case models.PolicyLeitner:
		return NewLeitnerPolicy(), nil
	case models.PolicySuperMemo:
		return NewSuperMemoPolicy(), nil
	default:
		return nil, fmt.Errorf("spaced_repetition: unknown policy kind %q", kind)
	}
}

// SeedPolicyState performs the one-time conversion when a learner switches to
// an alternative policy. The variant state is seeded from the item's current
// stability and the conversion happens exactly once per switch; switching
// back discards it.
//
//   - Leitner: stability in days picks the starting box
//     (<1d → 1, <3d → 2, <7d → 3, <14d → 4, else 5).
//   - SuperMemo: easiness starts at 2.5 reduced by the learned difficulty
//     (floor 1.3), repetitions carry over from the success streak, and the
//     interval is the rounded stability.
func SeedPolicyState(kind models.PolicyKind, state *models.MemoryState, now time.Time) *models.PolicyState {
	ps := &models.PolicyState{
		LearnerID: state.LearnerID,
		ItemID:    state.ItemID,
		Kind:      kind,
		UpdatedAt: now,
	}
	switch kind {
	case models.PolicyLeitner:
		ps.Box = boxForStability(state.Stability)
		ps.IntervalDays = defaultBoxIntervals[ps.Box-1]
	case models.PolicySuperMemo:
		ef := 2.5 - 1.2*state.Difficulty
		if ef < minEasinessFactor {
			ef = minEasinessFactor
		}
		ps.EasinessFactor = ef
		ps.Repetitions = state.ConsecutiveSuccesses
		ps.IntervalDays = int(math.Round(state.Stability))
		if ps.IntervalDays < 1 {
			ps.IntervalDays = 1
		}
	}
	return ps
}

func boxForStability(stability float64) int {
	switch {
	case stability < 1:
		return 1
	case stability < 3:
		return 2
	case stability < 7:
		return 3
	case stability < 14:
		return 4
	default:
		return 5
	}
}
