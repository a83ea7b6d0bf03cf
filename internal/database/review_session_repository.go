package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/example/recallengine/internal/engine"
	"github.com/example/recallengine/pkg/models"
)

// ReviewSessionRepository handles the append-only review history. Sessions
// are inserted once and never updated.
type ReviewSessionRepository struct {
	db *sqlx.DB
}

// NewReviewSessionRepository creates a new repository instance.
func NewReviewSessionRepository(db *sqlx.DB) *ReviewSessionRepository {
	return &ReviewSessionRepository{db: db}
}

type reviewSessionRow struct {
	ID          string    `db:"id"`
	LearnerID   string    `db:"learner_id"`
	ItemID      string    `db:"item_id"`
	Timestamp   time.Time `db:"timestamp"`
	ReviewType  string    `db:"review_type"`
	Performance string    `db:"performance"`
	Context     string    `db:"context"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r reviewSessionRow) toModel() (models.ReviewSession, error) {
	s := models.ReviewSession{
		ID:        r.ID,
		LearnerID: r.LearnerID,
		ItemID:    r.ItemID,
		Timestamp: r.Timestamp,
		Type:      models.ReviewType(r.ReviewType),
		CreatedAt: r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.Performance), &s.Performance); err != nil {
		return models.ReviewSession{}, fmt.Errorf("failed to decode performance: %v", err)
	}
	if err := json.Unmarshal([]byte(r.Context), &s.Context); err != nil {
		return models.ReviewSession{}, fmt.Errorf("failed to decode context: %v", err)
	}
	return s, nil
}

// AppendSession inserts one immutable session record.
func (r *ReviewSessionRepository) AppendSession(ctx context.Context, session models.ReviewSession) error {
	perf, err := json.Marshal(session.Performance)
	if err != nil {
		return fmt.Errorf("failed to encode performance: %v", err)
	}
	cf, err := json.Marshal(session.Context)
	if err != nil {
		return fmt.Errorf("failed to encode context: %v", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO review_sessions (id, learner_id, item_id, timestamp, review_type, performance, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.LearnerID, session.ItemID, session.Timestamp,
		string(session.Type), string(perf), string(cf), session.CreatedAt)
	if err != nil {
		// The recorder's SessionExists check races across pairs; the
		// primary key is the authoritative guard.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: session %s", engine.ErrDuplicateSession, session.ID)
		}
		return fmt.Errorf("failed to append review session: %v", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a primary-key or unique-constraint
// violation from either supported driver.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505" // unique_violation
	}
	return false
}

// SessionExists reports whether a session id has already been recorded.
func (r *ReviewSessionRepository) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM review_sessions WHERE id = $1", sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %v", err)
	}
	return count > 0, nil
}

// History returns the pair's review sessions in chronological order.
func (r *ReviewSessionRepository) History(ctx context.Context, learnerID, itemID string) ([]models.ReviewSession, error) {
	var rows []reviewSessionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM review_sessions
		WHERE learner_id = $1 AND item_id = $2
		ORDER BY timestamp ASC, id ASC
	`, learnerID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review history: %v", err)
	}
	sessions := make([]models.ReviewSession, 0, len(rows))
	for _, row := range rows {
		s, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
