package catalogdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
);
`

// migrations is an ordered list of schema changes for search.db. Migrations
// are applied in order starting from version 0; never modify an existing
// entry, only append.
var migrations = []func(*sql.Tx) error{
	migrateV0,
}

// migrateV0 creates the catalog, stats and search tables, per §4.4.
func migrateV0(tx *sql.Tx) error {
	schema := `
CREATE TABLE IF NOT EXISTS catalog (
	file_id            TEXT PRIMARY KEY,
	path               TEXT NOT NULL,
	name               TEXT NOT NULL,
	size               INTEGER NOT NULL,
	type               TEXT NOT NULL,
	format             TEXT NOT NULL,
	delimiter          TEXT,
	indexed_at         TEXT NOT NULL,
	total_records      INTEGER NOT NULL,
	columns            TEXT NOT NULL,
	searchable_columns TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
	file_id    TEXT PRIMARY KEY,
	stats_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS search (
	auto_id    INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id    TEXT NOT NULL,
	row_index  INTEGER NOT NULL,
	position   INTEGER NOT NULL,
	col0       TEXT,
	col1       TEXT,
	col2       TEXT,
	col3       TEXT,
	col4       TEXT,
	col5       TEXT
);
CREATE INDEX IF NOT EXISTS idx_search_file_id ON search(file_id);
CREATE INDEX IF NOT EXISTS idx_search_col0 ON search(col0);
CREATE INDEX IF NOT EXISTS idx_search_col1 ON search(col1);
CREATE INDEX IF NOT EXISTS idx_search_col2 ON search(col2);
CREATE UNIQUE INDEX IF NOT EXISTS idx_search_file_row ON search(file_id, row_index);
`
	_, err := tx.ExecContext(context.Background(), schema)
	return err
}

func runMigrations(db *sql.DB) error {
	if _, err := db.ExecContext(context.Background(), schemaVersionTable); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(context.Background(), "SELECT COALESCE(MAX(version), -1) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for i := currentVersion + 1; i < len(migrations); i++ {
		if err := runMigration(db, i); err != nil {
			return fmt.Errorf("run migration %d: %w", i, err)
		}
	}
	return nil
}

func runMigration(db *sql.DB, version int) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := migrations[version](tx); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(context.Background(), "INSERT INTO schema_version (version, applied_at) VALUES (?, ?)", version, now); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version, or -1 if none.
func SchemaVersion(db *sql.DB) (int, error) {
	var version int
	row := db.QueryRowContext(context.Background(), "SELECT COALESCE(MAX(version), -1) FROM schema_version")
	err := row.Scan(&version)
	return version, err
}
