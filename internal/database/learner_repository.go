package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallengine/pkg/models"
)

// LearnerRepository handles database operations for learners.
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance.
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// GetLearner returns a learner by id, or (nil, nil) when unknown.
func (r *LearnerRepository) GetLearner(ctx context.Context, id string) (*models.Learner, error) {
	var learner models.Learner
	err := r.db.GetContext(ctx, &learner, "SELECT * FROM learners WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %v", err)
	}
	return &learner, nil
}

// SaveLearner inserts or updates a learner.
func (r *LearnerRepository) SaveLearner(ctx context.Context, learner *models.Learner) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO learners (
			id, name, policy, max_daily_reviews, notification_enabled,
			notification_hour, telegram_chat_id, created_at, updated_at
		) VALUES (
			:id, :name, :policy, :max_daily_reviews, :notification_enabled,
			:notification_hour, :telegram_chat_id, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			policy = EXCLUDED.policy,
			max_daily_reviews = EXCLUDED.max_daily_reviews,
			notification_enabled = EXCLUDED.notification_enabled,
			notification_hour = EXCLUDED.notification_hour,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			updated_at = EXCLUDED.updated_at
	`, learner)
	if err != nil {
		return fmt.Errorf("failed to save learner: %v", err)
	}
	return nil
}

// ListLearners returns all learners ordered by id.
func (r *LearnerRepository) ListLearners(ctx context.Context) ([]models.Learner, error) {
	var learners []models.Learner
	err := r.db.SelectContext(ctx, &learners, "SELECT * FROM learners ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %v", err)
	}
	return learners, nil
}
