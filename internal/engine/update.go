package engine

import (
	"math"
	"time"

	"github.com/example/recallengine/pkg/models"
)

// Config tunes the memory-model update rule and phase thresholds.
// Zero values produce the documented defaults; the constants are empirical
// and deliberately configurable.
type Config struct {
	AcquisitionReviews   int     // zero → 3; reviews before leaving acquisition
	MaintenanceStability float64 // zero → 7; stability in days required for maintenance
	MaintenanceStreak    int     // zero → 3; consecutive successes required for maintenance
	SuccessThreshold     float64 // zero → 0.7; quality above this counts as success
	FailureThreshold     float64 // zero → 0.3; quality below this counts as failure
}

func (c Config) withDefaults() Config {
	if c.AcquisitionReviews == 0 {
		c.AcquisitionReviews = 3
	}
	if c.MaintenanceStability == 0 {
		c.MaintenanceStability = 7
	}
	if c.MaintenanceStreak == 0 {
		c.MaintenanceStreak = 3
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 0.7
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 0.3
	}
	return c
}

// ApplyReview runs the forgetting-curve update rule on a memory state:
//
//  1. elapsed days since the last review (negative clock skew clamps to 0)
//  2. decayed retrievability R·exp(−elapsed/stability)
//  3. stability scaled by 1.3 on success, 0.7 on failure, unchanged
//     in between, floored at MinStability
//  4. new memory strength = (decayed retrievability + quality) / 2
//  5. success/failure streak update (one streak is always zero)
//  6. phase recomputed from the updated counters
//
// It mutates exactly one state and touches nothing else; deterministic on
// valid input.
func ApplyReview(state *models.MemoryState, quality float64, now time.Time, cfg Config) {
	cfg = cfg.withDefaults()

	stability := state.Stability
	if stability < models.MinStability {
		stability = models.MinStability
	}
	decayed := state.Retrievability * math.Exp(-state.DaysSinceReview(now)/stability)

	switch {
	case quality > cfg.SuccessThreshold:
		state.Stability = stability * 1.3
		state.ConsecutiveSuccesses++
		state.ConsecutiveFailures = 0
	case quality < cfg.FailureThreshold:
		state.Stability = stability * 0.7
		state.ConsecutiveFailures++
		state.ConsecutiveSuccesses = 0
	default:
		state.Stability = stability
	}

	state.MemoryStrength = (decayed + quality) / 2
	// A completed review restores access; the composite estimate is the new
	// baseline that decays until the next review.
	state.Retrievability = state.MemoryStrength

	state.ReviewCount++
	state.LastReviewDate = now
	state.Phase = PhaseFor(cfg, state.ReviewCount, state.Stability,
		state.ConsecutiveSuccesses, state.ConsecutiveFailures)
	state.Clamp()
	state.UpdatedAt = now
}
