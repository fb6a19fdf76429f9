package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool *ConnectionPool
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB creates a new database connection with pooling and runs migrations
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "kolmetry.db")

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:   db,
		pool: pool,
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Canonical registry identities. NPI is the immutable 10-digit id.
		`CREATE TABLE IF NOT EXISTS persons (
			npi TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			specialty TEXT,
			city TEXT,
			state TEXT,
			active BOOLEAN DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Free-text name variants known to refer to a person.
		// normalized_text is unique per person, not globally.
		`CREATE TABLE IF NOT EXISTS aliases (
			id TEXT PRIMARY KEY,
			npi TEXT NOT NULL,
			text TEXT NOT NULL,
			normalized_text TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE(npi, normalized_text),
			FOREIGN KEY (npi) REFERENCES persons(npi)
		)`,

		`CREATE TABLE IF NOT EXISTS nominations (
			id TEXT PRIMARY KEY,
			scope TEXT NOT NULL,
			response_id TEXT NOT NULL,
			nomination_type TEXT NOT NULL,
			raw_name TEXT NOT NULL,
			nominator_npi TEXT,
			status TEXT NOT NULL DEFAULT 'UNMATCHED',
			matched_npi TEXT,
			confidence REAL,
			created_at DATETIME NOT NULL,
			resolved_at DATETIME
		)`,

		// Derived per (person, scope) score record. Segment columns are
		// externally supplied; everything else is recomputed wholesale.
		`CREATE TABLE IF NOT EXISTS person_scores (
			scope TEXT NOT NULL,
			npi TEXT NOT NULL,
			seg_publications REAL,
			seg_clinical_trials REAL,
			seg_conferences REAL,
			seg_guidelines REAL,
			seg_social_media REAL,
			seg_press_mentions REAL,
			seg_claims_volume REAL,
			seg_referral_network REAL,
			count_total INTEGER NOT NULL DEFAULT 0,
			count_national INTEGER NOT NULL DEFAULT 0,
			count_rising INTEGER NOT NULL DEFAULT 0,
			count_regional INTEGER NOT NULL DEFAULT 0,
			count_digital INTEGER NOT NULL DEFAULT 0,
			count_clinical INTEGER NOT NULL DEFAULT 0,
			survey_score REAL NOT NULL DEFAULT 0,
			score_national REAL NOT NULL DEFAULT 0,
			score_rising REAL NOT NULL DEFAULT 0,
			score_regional REAL NOT NULL DEFAULT 0,
			score_digital REAL NOT NULL DEFAULT 0,
			score_clinical REAL NOT NULL DEFAULT 0,
			composite_score REAL NOT NULL DEFAULT 0,
			calculated_at DATETIME NOT NULL,
			PRIMARY KEY (scope, npi),
			FOREIGN KEY (npi) REFERENCES persons(npi)
		)`,

		`CREATE TABLE IF NOT EXISTS weight_configs (
			scope TEXT PRIMARY KEY,
			w_publications REAL NOT NULL,
			w_clinical_trials REAL NOT NULL,
			w_conferences REAL NOT NULL,
			w_guidelines REAL NOT NULL,
			w_social_media REAL NOT NULL,
			w_press_mentions REAL NOT NULL,
			w_claims_volume REAL NOT NULL,
			w_referral_network REAL NOT NULL,
			w_survey REAL NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_persons_normalized ON persons(normalized_name)`,
		`CREATE INDEX IF NOT EXISTS idx_aliases_npi ON aliases(npi)`,
		`CREATE INDEX IF NOT EXISTS idx_aliases_normalized ON aliases(normalized_text)`,
		`CREATE INDEX IF NOT EXISTS idx_nominations_scope_status ON nominations(scope, status)`,
		`CREATE INDEX IF NOT EXISTS idx_nominations_matched ON nominations(scope, matched_npi)`,
		`CREATE INDEX IF NOT EXISTS idx_person_scores_composite ON person_scores(scope, composite_score DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
