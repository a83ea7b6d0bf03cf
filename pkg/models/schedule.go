package models

import "time"

// ReviewReason tags why an item landed on a daily schedule.
type ReviewReason string

const (
	ReasonOverdue   ReviewReason = "overdue"
	ReasonDueReview ReviewReason = "due_review"
)

// ScheduledReview is one prioritized slot on a daily schedule.
type ScheduledReview struct {
	ItemID             string       `json:"item_id"`
	Priority           float64      `json:"priority"`
	EstimatedMinutes   float64      `json:"estimated_minutes"`
	TimeWindow         string       `json:"time_window"`
	Reason             ReviewReason `json:"reason"`
	ExpectedDifficulty float64      `json:"expected_difficulty"` // 0-1
}

// DailyMetrics aggregates a single day's planned load.
type DailyMetrics struct {
	TotalReviewMinutes float64 `json:"total_review_minutes"`
	MeanCognitiveLoad  float64 `json:"mean_cognitive_load"`
	PriorityItems      int     `json:"priority_items"`
	NewItemCapacity    int     `json:"new_item_capacity"`
}

// DailySchedule holds one day's prioritized reviews.
type DailySchedule struct {
	Date    time.Time         `json:"date"`
	Reviews []ScheduledReview `json:"scheduled_reviews"`
	Metrics DailyMetrics      `json:"daily_metrics"`
}

// Schedule is a derived, fully regenerable multi-day review plan. It is a
// projection of the memory-state snapshot at GeneratedAt and carries no
// authoritative state.
type Schedule struct {
	LearnerID   string          `json:"learner_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	HorizonDays int             `json:"horizon_days"`
	Days        []DailySchedule `json:"days"`
}

// TotalReviews counts scheduled review slots across the horizon.
func (s *Schedule) TotalReviews() int {
	n := 0
	for _, d := range s.Days {
		n += len(d.Reviews)
	}
	return n
}
