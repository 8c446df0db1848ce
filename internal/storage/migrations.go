package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Projects table; artifacts are stored as JSON documents
			CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				attributes_json TEXT NOT NULL,
				style TEXT NOT NULL,
				locale TEXT NOT NULL,
				render_json TEXT,
				text_json TEXT,
				render_status TEXT NOT NULL DEFAULT 'idle',
				text_status TEXT NOT NULL DEFAULT 'idle',
				revision INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Publish history, append-only
			CREATE TABLE IF NOT EXISTS publications (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				channel_id TEXT NOT NULL,
				render_json TEXT NOT NULL,
				text_json TEXT,
				published_by TEXT,
				outcome TEXT NOT NULL,
				error TEXT,
				published_at DATETIME NOT NULL,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);

			-- Publishing channels
			CREATE TABLE IF NOT EXISTS channels (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				kind TEXT NOT NULL,
				target TEXT NOT NULL,
				subscribers_count INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at);
			CREATE INDEX IF NOT EXISTS idx_publications_project ON publications(project_id, published_at);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database not open")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UTC(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
