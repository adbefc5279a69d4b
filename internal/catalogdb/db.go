// Package catalogdb implements the Catalog (C5) and Secondary Index (C6):
// a single SQLite-backed store (search.db) holding the catalog, stats, and
// search tables described in §4.4, grounded on the migration/versioning
// pattern of mind-palace's corridor package and opened with
// modernc.org/sqlite the way that package does.
package catalogdb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the secondary index's database handle. All access is
// single-writer/many-reader per §5: the indexing coordinator is the sole
// writer, the request-serving thread is the sole reader of live data (it
// also writes catalog/recent-list mutations like forget/clear).
type DB struct {
	sql *sql.DB
}

// Open opens (creating if absent) the secondary index at path, running any
// pending migrations.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open search.db: %w", err)
	}
	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate search.db: %w", err)
	}
	return &DB{sql: conn}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error { return d.sql.Close() }
