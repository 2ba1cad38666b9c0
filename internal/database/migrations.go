package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are applied in order at startup. The schema is small enough that
// in-code statements beat a directory of .sql files.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_points",
		SQL: `
			CREATE TABLE IF NOT EXISTS points (
				id TEXT PRIMARY KEY,
				action TEXT NOT NULL,
				intent TEXT NOT NULL,
				x REAL NOT NULL,
				y REAL NOT NULL,
				x_min REAL,
				x_max REAL,
				y_min REAL,
				y_max REAL,
				label TEXT NOT NULL,
				mode TEXT NOT NULL,
				show_uncertainty INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		Version: 2,
		Name:    "create_judgement_cache",
		SQL: `
			CREATE TABLE IF NOT EXISTS judgement_cache (
				key TEXT PRIMARY KEY,
				y REAL NOT NULL,
				y_min REAL,
				y_max REAL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`,
	},
	{
		Version: 3,
		Name:    "index_points_mode",
		SQL:     `CREATE INDEX IF NOT EXISTS idx_points_mode ON points(mode)`,
	},
}

// Migrate applies pending migrations through a tracking table.
func Migrate(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}

		if _, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}

// initMigrationsTable creates the migrations tracking table
func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// appliedVersions returns the set of applied migration versions
func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}
