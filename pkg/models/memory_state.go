package models

import (
	"math"
	"time"
)

// ForgettingCurveParams are the fitted decay parameters for one
// (learner, item) pair, refreshed asynchronously by the curve analyzer.
type ForgettingCurveParams struct {
	InitialStrength float64   `json:"initial_strength"`
	DecayRate       float64   `json:"decay_rate"` // 1/half-life, per day
	Asymptote       float64   `json:"asymptote"`
	LastCalculated  time.Time `json:"last_calculated"`
}

// PersonalizationFactors capture how this learner relates to this item.
// They are derived estimates, recomputed offline.
type PersonalizationFactors struct {
	AbilityEstimate            float64  `json:"ability_estimate"`
	ItemAffinity               float64  `json:"item_affinity"`
	InterferenceSusceptibility float64  `json:"interference_susceptibility"`
	PreferredConditions        []string `json:"preferred_conditions,omitempty"`
}

// MemoryState tracks a learner's memory of a single item. One row exists per
// (learner, item) pair; it is mutated only by the review recorder.
type MemoryState struct {
	LearnerID            string        `json:"learner_id" db:"learner_id"`
	ItemID               string        `json:"item_id" db:"item_id"`
	MemoryStrength       float64       `json:"memory_strength" db:"memory_strength"` // 0-1 composite retention estimate
	Stability            float64       `json:"stability" db:"stability"`             // days; larger = slower decay
	Retrievability       float64       `json:"retrievability" db:"retrievability"`   // 0-1 recall probability at last review
	Difficulty           float64       `json:"difficulty" db:"difficulty"`           // 0-1 item hardness for this learner
	LastReviewDate       time.Time     `json:"last_review_date" db:"last_review_date"`
	NextReviewDate       time.Time     `json:"next_review_date" db:"next_review_date"`
	ReviewCount          int           `json:"review_count" db:"review_count"`
	ConsecutiveSuccesses int           `json:"consecutive_successes" db:"consecutive_successes"`
	ConsecutiveFailures  int           `json:"consecutive_failures" db:"consecutive_failures"`
	Phase                LearningPhase `json:"learning_phase" db:"learning_phase"`

	CurveParams     ForgettingCurveParams  `json:"forgetting_curve_parameters" db:"curve_params"`
	Personalization PersonalizationFactors `json:"personalization_factors" db:"personalization"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DaysSinceReview returns whole-and-fractional days between the last review
// and now. Clock skew producing negative elapsed time is clamped to 0.
func (s *MemoryState) DaysSinceReview(now time.Time) float64 {
	if s.LastReviewDate.IsZero() {
		return 0
	}
	days := now.Sub(s.LastReviewDate).Hours() / 24.0
	if days < 0 {
		return 0
	}
	return days
}

// RetrievabilityAt returns the decayed recall probability at the given time:
// R·exp(−elapsed/stability). Stability below the floor is treated as the floor.
func (s *MemoryState) RetrievabilityAt(now time.Time) float64 {
	stability := s.Stability
	if stability <= 0 {
		stability = MinStability
	}
	return s.Retrievability * math.Exp(-s.DaysSinceReview(now)/stability)
}

// OverdueAmount returns days past the point where elapsed time caught up with
// stability. Negative values mean the item is not yet due.
func (s *MemoryState) OverdueAmount(now time.Time) float64 {
	return s.DaysSinceReview(now) - s.Stability
}

// IsDue reports whether the item should be reviewed at the given time.
func (s *MemoryState) IsDue(now time.Time) bool {
	return s.OverdueAmount(now) >= 0
}

// IsMastered reports whether the item can be considered mastered: enough
// reviews, strength above the item's own threshold, and a month of stability.
func (s *MemoryState) IsMastered(item *LearningItem) bool {
	threshold := 0.8
	if item != nil && item.MasteryThreshold > 0 {
		threshold = item.MasteryThreshold
	}
	return s.ReviewCount >= 5 &&
		s.MemoryStrength >= threshold &&
		s.Stability >= 30
}

// MinStability is the floor for the stability field in days. Repeated
// failures shrink stability toward this value but never below it.
const MinStability = 0.1

// Clamp forces the bounded fields back into their invariant ranges.
func (s *MemoryState) Clamp() {
	s.MemoryStrength = clamp01(s.MemoryStrength)
	s.Retrievability = clamp01(s.Retrievability)
	s.Difficulty = clamp01(s.Difficulty)
	if s.Stability < MinStability {
		s.Stability = MinStability
	}
	if s.ReviewCount < 0 {
		s.ReviewCount = 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
