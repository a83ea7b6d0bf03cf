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

// ItemRepository handles database operations for learning items. The engine
// only reads items; writes come from content import tooling.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

type learningItemRow struct {
	ID               string    `db:"id"`
	Title            string    `db:"title"`
	ContentType      string    `db:"content_type"`
	Domain           string    `db:"domain"`
	Difficulty       int       `db:"difficulty"`
	CognitiveLoad    int       `db:"cognitive_load"`
	Prerequisites    string    `db:"prerequisites"`
	ImportanceWeight float64   `db:"importance_weight"`
	MasteryThreshold float64   `db:"mastery_threshold"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r learningItemRow) toModel() (*models.LearningItem, error) {
	item := &models.LearningItem{
		ID:               r.ID,
		Title:            r.Title,
		ContentType:      models.ContentType(r.ContentType),
		Domain:           r.Domain,
		Difficulty:       r.Difficulty,
		CognitiveLoad:    r.CognitiveLoad,
		ImportanceWeight: r.ImportanceWeight,
		MasteryThreshold: r.MasteryThreshold,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Prerequisites), &item.Prerequisites); err != nil {
		return nil, fmt.Errorf("failed to decode prerequisites: %v", err)
	}
	return item, nil
}

// GetItem returns a learning item by id, or (nil, nil) when unknown.
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*models.LearningItem, error) {
	var row learningItemRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM learning_items WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learning item: %v", err)
	}
	return row.toModel()
}

// SaveItem inserts or updates a learning item.
func (r *ItemRepository) SaveItem(ctx context.Context, item *models.LearningItem) error {
	prereqs := item.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	encoded, err := json.Marshal(prereqs)
	if err != nil {
		return fmt.Errorf("failed to encode prerequisites: %v", err)
	}
	row := learningItemRow{
		ID:               item.ID,
		Title:            item.Title,
		ContentType:      string(item.ContentType),
		Domain:           item.Domain,
		Difficulty:       item.Difficulty,
		CognitiveLoad:    item.CognitiveLoad,
		Prerequisites:    string(encoded),
		ImportanceWeight: item.ImportanceWeight,
		MasteryThreshold: item.MasteryThreshold,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO learning_items (
			id, title, content_type, domain, difficulty, cognitive_load,
			prerequisites, importance_weight, mastery_threshold, created_at, updated_at
		) VALUES (
			:id, :title, :content_type, :domain, :difficulty, :cognitive_load,
			:prerequisites, :importance_weight, :mastery_threshold, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content_type = EXCLUDED.content_type,
			domain = EXCLUDED.domain,
			difficulty = EXCLUDED.difficulty,
			cognitive_load = EXCLUDED.cognitive_load,
			prerequisites = EXCLUDED.prerequisites,
			importance_weight = EXCLUDED.importance_weight,
			mastery_threshold = EXCLUDED.mastery_threshold,
			updated_at = EXCLUDED.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("failed to save learning item: %v", err)
	}
	return nil
}

// ListItems returns all items in a domain, or all items when domain is empty.
func (r *ItemRepository) ListItems(ctx context.Context, domain string) ([]models.LearningItem, error) {
	var rows []learningItemRow
	var err error
	if domain == "" {
		err = r.db.SelectContext(ctx, &rows, "SELECT * FROM learning_items ORDER BY id")
	} else {
		err = r.db.SelectContext(ctx, &rows, "SELECT * FROM learning_items WHERE domain = $1 ORDER BY id", domain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list learning items: %v", err)
	}
	items := make([]models.LearningItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}
