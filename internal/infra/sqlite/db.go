// Package sqlite provides SQLite-based persistent storage for Vigor.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/vigor.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "vigor.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer; serializing connections also serializes
	// per-user progress updates, which the coordinator relies on.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Event ledger. Token uniqueness is the idempotency invariant —
		// enforced here, at the storage layer, not checked-then-written.
		`CREATE TABLE IF NOT EXISTS event_log (
			token       TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			source      TEXT NOT NULL,
			contract    TEXT NOT NULL,
			reversal    TEXT NOT NULL,
			status      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			reversed_at INTEGER,
			reversed_by TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_user_ts ON event_log(user_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_event_status ON event_log(status)`,

		// Per-user progress aggregate. Version column backs the
		// compare-and-swap that serializes concurrent writers.
		`CREATE TABLE IF NOT EXISTS user_progress (
			user_id     TEXT PRIMARY KEY,
			total_xp    INTEGER NOT NULL DEFAULT 0,
			level       INTEGER NOT NULL DEFAULT 1,
			category_xp TEXT NOT NULL DEFAULT '{}',
			counters    TEXT NOT NULL DEFAULT '{}',
			pending     TEXT NOT NULL DEFAULT '[]',
			claimed     TEXT NOT NULL DEFAULT '[]',
			version     INTEGER NOT NULL DEFAULT 0,
			updated_at  INTEGER NOT NULL
		)`,

		// Tracker entities
		`CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			title       TEXT NOT NULL,
			notes       TEXT NOT NULL DEFAULT '',
			difficulty  TEXT NOT NULL,
			category    TEXT NOT NULL DEFAULT '',
			base_xp     INTEGER NOT NULL,
			pattern     TEXT NOT NULL,
			custom_days TEXT NOT NULL DEFAULT '',
			created_at  INTEGER NOT NULL,
			archived    BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,
		`CREATE TABLE IF NOT EXISTS completions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id      TEXT NOT NULL,
			user_id      TEXT NOT NULL,
			day          INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			token        TEXT NOT NULL,
			UNIQUE(task_id, day)
		)`,
		`CREATE TABLE IF NOT EXISTS foods (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL,
			name      TEXT NOT NULL,
			category  TEXT NOT NULL DEFAULT '',
			calories  INTEGER NOT NULL DEFAULT 0,
			logged_at INTEGER NOT NULL,
			token     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_foods_user ON foods(user_id, logged_at)`,
		`CREATE TABLE IF NOT EXISTS workouts (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			name         TEXT NOT NULL,
			category     TEXT NOT NULL DEFAULT '',
			difficulty   TEXT NOT NULL,
			duration_min INTEGER NOT NULL DEFAULT 0,
			logged_at    INTEGER NOT NULL,
			token        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_user ON workouts(user_id, logged_at)`,

		// Weekly goals
		`CREATE TABLE IF NOT EXISTS goals (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			kind        TEXT NOT NULL,
			description TEXT NOT NULL,
			target      INTEGER NOT NULL,
			progress    INTEGER NOT NULL DEFAULT 0,
			reward_xp   INTEGER NOT NULL,
			expires_at  INTEGER NOT NULL,
			completed   BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, expires_at)`,

		// Notifications
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, shown)`,
	}

	for i, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
