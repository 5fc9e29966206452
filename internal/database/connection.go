// Package database provides the persistence collaborators for the review
// scheduler and level assessor: vocabulary items, review history, learner
// profiles and level-change audit records.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config selects the database engine and its connection string.
type Config struct {
	Type string // "sqlite" (default) or "postgres"
	DSN  string // file path for sqlite, connection URL for postgres
}

// ConfigFromEnv builds a Config from DB_TYPE, DATABASE_URL and DATABASE_PATH.
func ConfigFromEnv() Config {
	cfg := Config{Type: os.Getenv("DB_TYPE")}
	if cfg.Type == "" {
		cfg.Type = "sqlite"
	}
	if cfg.Type == "postgres" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	} else {
		cfg.DSN = os.Getenv("DATABASE_PATH")
		if cfg.DSN == "" {
			cfg.DSN = filepath.Join("data", "esplearn.db")
		}
	}
	return cfg
}

// DB wraps the sqlx handle. Repositories receive it by injection; there is
// no package-global connection.
type DB struct {
	*sqlx.DB
	driver string
}

// Connect opens the database and initializes the schema.
func Connect(cfg Config) (*DB, error) {
	switch cfg.Type {
	case "", "sqlite":
		return connectSQLite(cfg.DSN)
	case "postgres":
		return connectPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %q", cfg.Type)
	}
}

func connectSQLite(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	h := &DB{DB: db, driver: "sqlite3"}
	if err := h.initializeSchema(); err != nil {
		return nil, err
	}
	return h, nil
}

func connectPostgres(url string) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	h := &DB{DB: db, driver: "postgres"}
	if err := h.initializeSchema(); err != nil {
		return nil, err
	}
	return h, nil
}

// serialPK returns the auto-increment primary key clause for the driver.
func (db *DB) serialPK() string {
	if db.driver == "postgres" {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates the tables if they don't exist.
func (db *DB) initializeSchema() error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS vocabulary (
				id %s,
				learner_id TEXT NOT NULL,
				lemma TEXT NOT NULL,
				translation TEXT NOT NULL DEFAULT '',
				context TEXT NOT NULL DEFAULT '',
				source_type TEXT NOT NULL DEFAULT '',
				source_ref TEXT NOT NULL DEFAULT '',
				ease_factor REAL NOT NULL DEFAULT 2.5,
				interval_days REAL NOT NULL DEFAULT 0,
				repetitions INTEGER NOT NULL DEFAULT 0,
				mastery_tier INTEGER NOT NULL DEFAULT 0,
				next_review_at TIMESTAMP NOT NULL,
				last_reviewed_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				UNIQUE(learner_id, lemma)
			)
		`, db.serialPK()),
		`CREATE INDEX IF NOT EXISTS idx_vocabulary_due ON vocabulary(learner_id, next_review_at)`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS review_history (
				id %s,
				learner_id TEXT NOT NULL,
				word_id INTEGER NOT NULL,
				quality INTEGER NOT NULL,
				interval_days REAL NOT NULL,
				mastery_tier INTEGER NOT NULL,
				reviewed_at TIMESTAMP NOT NULL
			)
		`, db.serialPK()),
		`CREATE INDEX IF NOT EXISTS idx_review_history_learner ON review_history(learner_id, reviewed_at)`,
		`
			CREATE TABLE IF NOT EXISTS learner_profiles (
				learner_id TEXT PRIMARY KEY,
				proficiency_level TEXT NOT NULL DEFAULT 'A2',
				total_points INTEGER NOT NULL DEFAULT 0,
				level_points INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)
		`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS level_changes (
				id %s,
				learner_id TEXT NOT NULL,
				old_level TEXT NOT NULL,
				new_level TEXT NOT NULL,
				change_type TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)
		`, db.serialPK()),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
