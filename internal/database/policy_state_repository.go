package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/recallengine/pkg/models"
)

// PolicyStateRepository persists the parallel state of alternative
// scheduling policies.
type PolicyStateRepository struct {
	db *sqlx.DB
}

// NewPolicyStateRepository creates a new repository instance.
func NewPolicyStateRepository(db *sqlx.DB) *PolicyStateRepository {
	return &PolicyStateRepository{db: db}
}

// GetPolicyState returns the variant state for the pair, or (nil, nil) when
// none exists.
func (r *PolicyStateRepository) GetPolicyState(ctx context.Context, learnerID, itemID string) (*models.PolicyState, error) {
	var ps models.PolicyState
	err := r.db.GetContext(ctx, &ps,
		"SELECT * FROM policy_states WHERE learner_id = $1 AND item_id = $2", learnerID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy state: %v", err)
	}
	return &ps, nil
}

// SavePolicyState inserts or updates the pair's variant state.
func (r *PolicyStateRepository) SavePolicyState(ctx context.Context, ps *models.PolicyState) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO policy_states (
			learner_id, item_id, kind, box, easiness_factor, repetitions, interval_days, updated_at
		) VALUES (
			:learner_id, :item_id, :kind, :box, :easiness_factor, :repetitions, :interval_days, :updated_at
		)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			box = EXCLUDED.box,
			easiness_factor = EXCLUDED.easiness_factor,
			repetitions = EXCLUDED.repetitions,
			interval_days = EXCLUDED.interval_days,
			updated_at = EXCLUDED.updated_at
	`, ps)
	if err != nil {
		return fmt.Errorf("failed to save policy state: %v", err)
	}
	return nil
}

// DeletePolicyStates discards all of a learner's variant state, used when
// switching policies.
func (r *PolicyStateRepository) DeletePolicyStates(ctx context.Context, learnerID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM policy_states WHERE learner_id = $1", learnerID)
	if err != nil {
		return fmt.Errorf("failed to delete policy states: %v", err)
	}
	return nil
}
