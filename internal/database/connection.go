package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens the database selected by DB_TYPE ("sqlite", the default, or
// "postgres") and bootstraps the schema. SQLite uses DB_PATH (default
// data/recallengine.db); Postgres uses DATABASE_URL.
func Connect() (*sqlx.DB, error) {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error
	switch dbType {
	case "sqlite":
		path := os.Getenv("DB_PATH")
		if path == "" {
			if mkErr := os.MkdirAll("data", 0755); mkErr != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", mkErr)
			}
			path = filepath.Join("data", "recallengine.db")
		}
		db, err = sqlx.Connect("sqlite3", path)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %v", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case "postgres":
		db, err = sqlx.Connect("postgres", os.Getenv("DATABASE_URL"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %v", err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	if err := initializeSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initializeSchema creates the tables if they don't exist. The DDL is kept
// portable across SQLite and Postgres; nested structs are stored as JSON
// text columns.
func initializeSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS learners (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			policy TEXT NOT NULL DEFAULT 'default',
			max_daily_reviews INTEGER NOT NULL DEFAULT 20,
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			telegram_chat_id BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS learning_items (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			content_type TEXT NOT NULL DEFAULT 'concept',
			domain TEXT NOT NULL DEFAULT '',
			difficulty INTEGER NOT NULL DEFAULT 5,
			cognitive_load INTEGER NOT NULL DEFAULT 3,
			prerequisites TEXT NOT NULL DEFAULT '[]',
			importance_weight REAL NOT NULL DEFAULT 0.5,
			mastery_threshold REAL NOT NULL DEFAULT 0.8,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memory_states (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			memory_strength REAL NOT NULL,
			stability REAL NOT NULL,
			retrievability REAL NOT NULL,
			difficulty REAL NOT NULL,
			last_review_date TIMESTAMP,
			next_review_date TIMESTAMP,
			review_count INTEGER NOT NULL DEFAULT 0,
			consecutive_successes INTEGER NOT NULL DEFAULT 0,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			learning_phase TEXT NOT NULL DEFAULT 'acquisition',
			curve_params TEXT NOT NULL DEFAULT '{}',
			personalization TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS review_sessions (
			id TEXT PRIMARY KEY,
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			review_type TEXT NOT NULL,
			performance TEXT NOT NULL DEFAULT '{}',
			context TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_sessions_pair
			ON review_sessions (learner_id, item_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS policy_states (
			learner_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			box INTEGER NOT NULL DEFAULT 0,
			easiness_factor REAL NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (learner_id, item_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
