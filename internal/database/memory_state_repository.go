package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallengine/pkg/models"
)

// MemoryStateRepository handles database operations for memory states.
type MemoryStateRepository struct {
	db *sqlx.DB
}

// NewMemoryStateRepository creates a new repository instance.
func NewMemoryStateRepository(db *sqlx.DB) *MemoryStateRepository {
	return &MemoryStateRepository{db: db}
}

// memoryStateRow is the flat row shape; nested structs live in JSON columns.
type memoryStateRow struct {
	LearnerID            string       `db:"learner_id"`
	ItemID               string       `db:"item_id"`
	MemoryStrength       float64      `db:"memory_strength"`
	Stability            float64      `db:"stability"`
	Retrievability       float64      `db:"retrievability"`
	Difficulty           float64      `db:"difficulty"`
	LastReviewDate       sql.NullTime `db:"last_review_date"`
	NextReviewDate       sql.NullTime `db:"next_review_date"`
	ReviewCount          int          `db:"review_count"`
	ConsecutiveSuccesses int          `db:"consecutive_successes"`
	ConsecutiveFailures  int          `db:"consecutive_failures"`
	LearningPhase        string       `db:"learning_phase"`
	CurveParams          string       `db:"curve_params"`
	Personalization      string       `db:"personalization"`
	CreatedAt            time.Time    `db:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

func (r memoryStateRow) toModel() (*models.MemoryState, error) {
	state := &models.MemoryState{
		LearnerID:            r.LearnerID,
		ItemID:               r.ItemID,
		MemoryStrength:       r.MemoryStrength,
		Stability:            r.Stability,
		Retrievability:       r.Retrievability,
		Difficulty:           r.Difficulty,
		ReviewCount:          r.ReviewCount,
		ConsecutiveSuccesses: r.ConsecutiveSuccesses,
		ConsecutiveFailures:  r.ConsecutiveFailures,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.LastReviewDate.Valid {
		state.LastReviewDate = r.LastReviewDate.Time
	}
	if r.NextReviewDate.Valid {
		state.NextReviewDate = r.NextReviewDate.Time
	}
	if err := state.Phase.UnmarshalText([]byte(r.LearningPhase)); err != nil {
		return nil, fmt.Errorf("failed to decode learning phase: %v", err)
	}
	if err := json.Unmarshal([]byte(r.CurveParams), &state.CurveParams); err != nil {
		return nil, fmt.Errorf("failed to decode curve params: %v", err)
	}
	if err := json.Unmarshal([]byte(r.Personalization), &state.Personalization); err != nil {
		return nil, fmt.Errorf("failed to decode personalization: %v", err)
	}
	return state, nil
}

func memoryStateToRow(s *models.MemoryState) (memoryStateRow, error) {
	curve, err := json.Marshal(s.CurveParams)
	if err != nil {
		return memoryStateRow{}, fmt.Errorf("failed to encode curve params: %v", err)
	}
	pers, err := json.Marshal(s.Personalization)
	if err != nil {
		return memoryStateRow{}, fmt.Errorf("failed to encode personalization: %v", err)
	}
	row := memoryStateRow{
		LearnerID:            s.LearnerID,
		ItemID:               s.ItemID,
		MemoryStrength:       s.MemoryStrength,
		Stability:            s.Stability,
		Retrievability:       s.Retrievability,
		Difficulty:           s.Difficulty,
		ReviewCount:          s.ReviewCount,
		ConsecutiveSuccesses: s.ConsecutiveSuccesses,
		ConsecutiveFailures:  s.ConsecutiveFailures,
		LearningPhase:        s.Phase.String(),
		CurveParams:          string(curve),
		Personalization:      string(pers),
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
	if !s.LastReviewDate.IsZero() {
		row.LastReviewDate = sql.NullTime{Time: s.LastReviewDate, Valid: true}
	}
	if !s.NextReviewDate.IsZero() {
		row.NextReviewDate = sql.NullTime{Time: s.NextReviewDate, Valid: true}
	}
	return row, nil
}

// GetState returns the memory state for the pair, or (nil, nil) when none
// exists.
func (r *MemoryStateRepository) GetState(ctx context.Context, learnerID, itemID string) (*models.MemoryState, error) {
	var row memoryStateRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM memory_states WHERE learner_id = $1 AND item_id = $2", learnerID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory state: %v", err)
	}
	return row.toModel()
}

// SaveState inserts or updates the pair's memory state.
func (r *MemoryStateRepository) SaveState(ctx context.Context, state *models.MemoryState) error {
	row, err := memoryStateToRow(state)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO memory_states (
			learner_id, item_id, memory_strength, stability, retrievability,
			difficulty, last_review_date, next_review_date, review_count,
			consecutive_successes, consecutive_failures, learning_phase,
			curve_params, personalization, created_at, updated_at
		) VALUES (
			:learner_id, :item_id, :memory_strength, :stability, :retrievability,
			:difficulty, :last_review_date, :next_review_date, :review_count,
			:consecutive_successes, :consecutive_failures, :learning_phase,
			:curve_params, :personalization, :created_at, :updated_at
		)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			memory_strength = EXCLUDED.memory_strength,
			stability = EXCLUDED.stability,
			retrievability = EXCLUDED.retrievability,
			difficulty = EXCLUDED.difficulty,
			last_review_date = EXCLUDED.last_review_date,
			next_review_date = EXCLUDED.next_review_date,
			review_count = EXCLUDED.review_count,
			consecutive_successes = EXCLUDED.consecutive_successes,
			consecutive_failures = EXCLUDED.consecutive_failures,
			learning_phase = EXCLUDED.learning_phase,
			curve_params = EXCLUDED.curve_params,
			personalization = EXCLUDED.personalization,
			updated_at = EXCLUDED.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("failed to save memory state: %v", err)
	}
	return nil
}

// ListStates returns all memory states for a learner, ordered by item id for
// reproducible snapshots.
func (r *MemoryStateRepository) ListStates(ctx context.Context, learnerID string) ([]models.MemoryState, error) {
	var rows []memoryStateRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM memory_states WHERE learner_id = $1 ORDER BY item_id", learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory states: %v", err)
	}
	states := make([]models.MemoryState, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, err
		}
		states = append(states, *s)
	}
	return states, nil
}

// LearnerStatistics summarizes a learner's progress.
type LearnerStatistics struct {
	TotalItems    int     `db:"total_items"`
	DueToday      int     `db:"due_today"`
	Mastered      int     `db:"mastered"`
	MeanStability float64 `db:"mean_stability"`
	MeanStrength  float64 `db:"mean_strength"`
}

// GetLearnerStatistics returns aggregate statistics about a learner's
// memory states.
func (r *MemoryStateRepository) GetLearnerStatistics(ctx context.Context, learnerID string, now time.Time) (*LearnerStatistics, error) {
	var stats LearnerStatistics

	err := r.db.GetContext(ctx, &stats.TotalItems,
		"SELECT COUNT(*) FROM memory_states WHERE learner_id = $1", learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count memory states: %v", err)
	}

	err = r.db.GetContext(ctx, &stats.DueToday,
		"SELECT COUNT(*) FROM memory_states WHERE learner_id = $1 AND next_review_date <= $2",
		learnerID, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to count due states: %v", err)
	}

	// Mirrors MemoryState.IsMastered: item threshold when set, 0.8 otherwise.
	err = r.db.GetContext(ctx, &stats.Mastered, `
		SELECT COUNT(*)
		FROM memory_states m
		LEFT JOIN learning_items i ON i.id = m.item_id
		WHERE m.learner_id = $1
		  AND m.review_count >= 5
		  AND m.memory_strength >= CASE WHEN COALESCE(i.mastery_threshold, 0) > 0 THEN i.mastery_threshold ELSE 0.8 END
		  AND m.stability >= 30`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count mastered states: %v", err)
	}

	err = r.db.GetContext(ctx, &stats.MeanStability,
		"SELECT COALESCE(AVG(stability), 0) FROM memory_states WHERE learner_id = $1", learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to average stability: %v", err)
	}

	err = r.db.GetContext(ctx, &stats.MeanStrength,
		"SELECT COALESCE(AVG(memory_strength), 0) FROM memory_states WHERE learner_id = $1", learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to average memory strength: %v", err)
	}

	return &stats, nil
}
