package catalogdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// IndexTx wraps a single indexing job's writes to search.db in one
// transaction, per §4.4: "Writes happen inside a single transaction per
// indexing job; if the job fails or is cancelled, the transaction is rolled
// back before the catalog entry is visible."
type IndexTx struct {
	tx   *sql.Tx
	done bool
}

// BeginIndexTx starts a new transaction for one indexing job.
func (d *DB) BeginIndexTx(ctx context.Context) (*IndexTx, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &IndexTx{tx: tx}, nil
}

// ResetFile deletes any existing search rows, stats, and catalog entry for
// fileID before a (re-)indexing job populates fresh ones, so a re-index of
// an unchanged file doesn't append duplicate search rows for the same
// row_index range.
func (ix *IndexTx) ResetFile(ctx context.Context, fileID string) error {
	if _, err := ix.tx.ExecContext(ctx, `DELETE FROM search WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	if _, err := ix.tx.ExecContext(ctx, `DELETE FROM stats WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	_, err := ix.tx.ExecContext(ctx, `DELETE FROM catalog WHERE file_id = ?`, fileID)
	return err
}

// InsertSearchRow appends one row to the search table.
func (ix *IndexTx) InsertSearchRow(ctx context.Context, fileID string, row SearchRow) error {
	_, err := ix.tx.ExecContext(ctx,
		`INSERT INTO search (file_id, row_index, position, col0, col1, col2, col3, col4, col5)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fileID, row.RowIndex, row.Position,
		nullableCol(row.Cols[0]), nullableCol(row.Cols[1]), nullableCol(row.Cols[2]),
		nullableCol(row.Cols[3]), nullableCol(row.Cols[4]), nullableCol(row.Cols[5]),
	)
	return err
}

// SetCatalogEntry inserts or replaces the catalog row for entry.FileID.
func (ix *IndexTx) SetCatalogEntry(ctx context.Context, entry CatalogEntry) error {
	columnsJSON, err := json.Marshal(entry.Columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}
	searchableJSON, err := json.Marshal(entry.SearchableColumns)
	if err != nil {
		return fmt.Errorf("marshal searchable_columns: %w", err)
	}
	_, err = ix.tx.ExecContext(ctx,
		`INSERT INTO catalog (file_id, path, name, size, type, format, delimiter, indexed_at, total_records, columns, searchable_columns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_id) DO UPDATE SET
		   path=excluded.path, name=excluded.name, size=excluded.size, type=excluded.type,
		   format=excluded.format, delimiter=excluded.delimiter, indexed_at=excluded.indexed_at,
		   total_records=excluded.total_records, columns=excluded.columns, searchable_columns=excluded.searchable_columns`,
		entry.FileID, entry.Path, entry.Name, entry.Size, entry.Type, entry.Format,
		entry.Delimiter, entry.IndexedAt.UTC().Format(time.RFC3339), entry.TotalRecords,
		string(columnsJSON), string(searchableJSON),
	)
	return err
}

// SetStats inserts or replaces the stats row for fileID.
func (ix *IndexTx) SetStats(ctx context.Context, fileID string, stats []ColumnStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	_, err = ix.tx.ExecContext(ctx,
		`INSERT INTO stats (file_id, stats_json) VALUES (?, ?)
		 ON CONFLICT(file_id) DO UPDATE SET stats_json=excluded.stats_json`,
		fileID, string(statsJSON),
	)
	return err
}

// Commit commits the transaction, making the indexing job's results visible
// atomically.
func (ix *IndexTx) Commit() error {
	ix.done = true
	return ix.tx.Commit()
}

// Rollback rolls back the transaction. Safe to call after Commit (no-op).
func (ix *IndexTx) Rollback() error {
	if ix.done {
		return nil
	}
	return ix.tx.Rollback()
}

func nullableCol(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
