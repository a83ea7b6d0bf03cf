// Package advisory wraps the optional AI advisory service. Every call is
// bounded by a timeout and backed by a deterministic fallback; advisory
// failures never reach callers.
package advisory

import (
	"context"

	"github.com/example/recallengine/pkg/models"
)

// IntervalRecommendation is an advisory suggestion for one item's next
// review interval.
type IntervalRecommendation struct {
	ItemID       string  `json:"item_id"`
	IntervalDays float64 `json:"interval_days"`
	Rationale    string  `json:"rationale,omitempty"`
}

// TimeWindow is a suggested daily review window.
type TimeWindow struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Label     string `json:"label"`
}

// LearnerProfile is the summary handed to the advisory service when asking
// for review windows.
type LearnerProfile struct {
	LearnerID     string  `json:"learner_id"`
	MeanQuality   float64 `json:"mean_quality"`
	PreferredHour int     `json:"preferred_hour"`
	ReviewsPerDay float64 `json:"reviews_per_day"`
}

// Advisor is an external service that can refine interval and timing
// suggestions. Implementations may fail or time out; the Service wrapper
// converts every failure into deterministic fallback output.
type Advisor interface {
	SuggestIntervals(ctx context.Context, states []models.MemoryState) ([]IntervalRecommendation, error)
	SuggestReviewWindows(ctx context.Context, profile LearnerProfile) ([]TimeWindow, error)
}
