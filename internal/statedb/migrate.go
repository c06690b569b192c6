package statedb

import (
	"database/sql"
	"fmt"
	"strconv"
)

// SchemaVersion tracks the current database schema version.
// Bump this when appending to migrations.
const SchemaVersion = 2

// migrations[i] upgrades a version-i database to version i+1.
var migrations = []func(tx *sql.Tx) error{
	migrateV1,
	migrateV2,
}

// Migrate creates tables if they don't exist and runs any pending migrations
// in one transaction.
func (s *StateDB) Migrate() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("statedb: create metadata: %w", err)
	}

	current, err := schemaVersion(tx)
	if err != nil {
		return err
	}
	if current > SchemaVersion {
		return fmt.Errorf("statedb: schema version %d is newer than supported %d", current, SchemaVersion)
	}

	for v := current; v < SchemaVersion; v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("statedb: migrate to v%d: %w", v+1, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)",
		strconv.Itoa(SchemaVersion),
	); err != nil {
		return fmt.Errorf("statedb: set schema version: %w", err)
	}

	return tx.Commit()
}

// Version returns the schema version recorded in the database.
func (s *StateDB) Version() (int, error) {
	v, err := s.GetMeta("schema_version")
	if err != nil || v == "" {
		return 0, err
	}
	return strconv.Atoi(v)
}

func schemaVersion(tx *sql.Tx) (int, error) {
	var raw string
	err := tx.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("statedb: read schema version: %w", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("statedb: bad schema version %q: %w", raw, err)
	}
	return v, nil
}

func migrateV1(tx *sql.Tx) error {
	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			bundle_id          TEXT PRIMARY KEY,
			is_pinned          INTEGER NOT NULL DEFAULT 0,
			pin_order          INTEGER NOT NULL DEFAULT 0,
			category_override  TEXT NOT NULL DEFAULT '',
			is_hidden          INTEGER NOT NULL DEFAULT 0,
			last_known_version TEXT NOT NULL DEFAULT '',
			is_new             INTEGER NOT NULL DEFAULT 0,
			is_updated         INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		return fmt.Errorf("create preferences: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS usage_records (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			bundle_id   TEXT NOT NULL,
			launched_at INTEGER NOT NULL,
			hour_of_day INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create usage_records: %w", err)
	}
	return nil
}

// migrateV2 indexes the columns suggestion queries filter on.
func migrateV2(tx *sql.Tx) error {
	if _, err := tx.Exec(
		"CREATE INDEX IF NOT EXISTS idx_usage_bundle ON usage_records (bundle_id)",
	); err != nil {
		return fmt.Errorf("index usage bundle: %w", err)
	}
	if _, err := tx.Exec(
		"CREATE INDEX IF NOT EXISTS idx_usage_hour ON usage_records (hour_of_day)",
	); err != nil {
		return fmt.Errorf("index usage hour: %w", err)
	}
	return nil
}
