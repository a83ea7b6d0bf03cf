package models

import "time"

// ReviewUrgency is the heuristic recommendation attached to a retention
// prediction.
type ReviewUrgency string

const (
	UrgencyHigh   ReviewUrgency = "high"   // predicted retention < 0.5
	UrgencyMedium ReviewUrgency = "medium" // predicted retention < 0.7
	UrgencyLow    ReviewUrgency = "low"
)

// CurvePoint is one historical observation used for curve fitting.
type CurvePoint struct {
	DaysSinceLearning float64 `json:"days_since_learning"`
	Retention         float64 `json:"retention"`
}

// RetentionPrediction is a forward projection of the fitted curve.
type RetentionPrediction struct {
	Days      float64       `json:"days"`
	Retention float64       `json:"retention"`
	Urgency   ReviewUrgency `json:"urgency"`
}

// ForgettingCurveAnalysis is the result of fitting a retention-decay curve to
// one (learner, item) review history. Derived data; recomputed on demand.
type ForgettingCurveAnalysis struct {
	LearnerID       string                `json:"learner_id"`
	ItemID          string                `json:"item_id"`
	InitialStrength float64               `json:"initial_strength"`
	HalfLife        float64               `json:"half_life"` // days
	Asymptote       float64               `json:"asymptote"`
	RSquared        float64               `json:"r_squared"`
	Points          []CurvePoint          `json:"data_points"`
	Predictions     []RetentionPrediction `json:"predictions"`
	Insights        []string              `json:"insights,omitempty"`
	AnalyzedAt      time.Time             `json:"analyzed_at"`
}
