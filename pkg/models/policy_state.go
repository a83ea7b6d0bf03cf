package models

import "time"

// PolicyState carries the per-(learner, item) state owned by an alternative
// scheduling policy. The default interval calculator keeps everything it
// needs on MemoryState; Leitner and SuperMemo keep their parallel state here.
// The state shape is a union: Leitner uses Box, SuperMemo uses
// EasinessFactor/Repetitions, both use IntervalDays.
type PolicyState struct {
	LearnerID      string     `json:"learner_id" db:"learner_id"`
	ItemID         string     `json:"item_id" db:"item_id"`
	Kind           PolicyKind `json:"kind" db:"kind"`
	Box            int        `json:"box" db:"box"`                         // Leitner: 1-based box index
	EasinessFactor float64    `json:"easiness_factor" db:"easiness_factor"` // SuperMemo: EF, floor 1.3
	Repetitions    int        `json:"repetitions" db:"repetitions"`         // SuperMemo: successful streak length
	IntervalDays   int        `json:"interval_days" db:"interval_days"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
