package models

import "time"

// ContentType classifies what kind of knowledge a learning item carries.
type ContentType string

const (
	ContentConcept   ContentType = "concept"
	ContentFact      ContentType = "fact"
	ContentProcedure ContentType = "procedure"
	ContentPrinciple ContentType = "principle"
	ContentSkill     ContentType = "skill"
)

// LearningItem is an immutable content descriptor supplied by the content
// collaborator. The engine only reads it.
type LearningItem struct {
	ID               string      `json:"id" db:"id"`
	Title            string      `json:"title" db:"title"`
	ContentType      ContentType `json:"content_type" db:"content_type"`
	Domain           string      `json:"domain" db:"domain"`
	Difficulty       int         `json:"difficulty" db:"difficulty"`           // 1-10 scale
	CognitiveLoad    int         `json:"cognitive_load" db:"cognitive_load"`   // 1-5 scale
	Prerequisites    []string    `json:"prerequisites" db:"prerequisites"`     // item IDs
	ImportanceWeight float64     `json:"importance_weight" db:"importance_weight"` // 0-1
	MasteryThreshold float64     `json:"mastery_threshold" db:"mastery_threshold"` // 0-1
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// NormalizedDifficulty maps the 1-10 authoring scale onto [0,1].
func (it *LearningItem) NormalizedDifficulty() float64 {
	d := it.Difficulty
	if d < 1 {
		d = 1
	}
	if d > 10 {
		d = 10
	}
	return float64(d-1) / 9.0
}
