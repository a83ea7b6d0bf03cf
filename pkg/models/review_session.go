package models

import "time"

// ReviewType distinguishes why a review happened.
type ReviewType string

const (
	ReviewInitialLearning ReviewType = "initial_learning"
	ReviewScheduled       ReviewType = "scheduled_review"
	ReviewCramming        ReviewType = "cramming"
	ReviewReinforcement   ReviewType = "reinforcement"
	ReviewAssessment      ReviewType = "assessment"
)

// PerformanceData is what the client measured during a single review.
type PerformanceData struct {
	ResponseQuality float64       `json:"response_quality"` // 0-1
	ResponseTime    time.Duration `json:"response_time"`
	Confidence      float64       `json:"confidence"` // 0-1
	Effort          float64       `json:"effort"`     // 0-1
	HintsUsed       int           `json:"hints_used"`
	Errors          int           `json:"errors"`
	Completed       bool          `json:"completed"`
}

// ContextFactors describe the conditions the review happened under. All
// fields are optional; they feed the personalization estimates.
type ContextFactors struct {
	TimeOfDay          int     `json:"time_of_day"` // hour 0-23
	SessionLengthMin   int     `json:"session_length_min"`
	ConcurrentItems    int     `json:"concurrent_items"`
	EmotionalState     string  `json:"emotional_state,omitempty"`
	EnvironmentQuality float64 `json:"environment_quality"` // 0-1
	Motivation         float64 `json:"motivation"`          // 0-1
}

// ReviewOutcome is the client-submitted result of a completed review, before
// it has been applied to a memory state.
type ReviewOutcome struct {
	SessionID   string          `json:"session_id"` // empty → generated by the engine
	Type        ReviewType      `json:"review_type"`
	Timestamp   time.Time       `json:"timestamp"` // zero → now
	Performance PerformanceData `json:"performance"`
	Context     ContextFactors  `json:"context"`
}

// ReviewSession is the immutable event record appended to per-(learner,item)
// history after a review has been applied. Never mutated.
type ReviewSession struct {
	ID          string          `json:"id" db:"id"`
	LearnerID   string          `json:"learner_id" db:"learner_id"`
	ItemID      string          `json:"item_id" db:"item_id"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
	Type        ReviewType      `json:"review_type" db:"review_type"`
	Performance PerformanceData `json:"performance" db:"performance"`
	Context     ContextFactors  `json:"context" db:"context"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
