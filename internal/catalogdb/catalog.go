package catalogdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a file-id has no catalog entry.
var ErrNotFound = errors.New("catalogdb: not found")

// GetEntry resolves the catalog entry for fileID.
func (d *DB) GetEntry(ctx context.Context, fileID string) (CatalogEntry, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT file_id, path, name, size, type, format, delimiter, indexed_at, total_records, columns, searchable_columns
		 FROM catalog WHERE file_id = ?`, fileID)

	var (
		entry          CatalogEntry
		delimiter      sql.NullString
		indexedAt      string
		columnsJSON    string
		searchableJSON string
	)
	err := row.Scan(&entry.FileID, &entry.Path, &entry.Name, &entry.Size, &entry.Type, &entry.Format,
		&delimiter, &indexedAt, &entry.TotalRecords, &columnsJSON, &searchableJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return CatalogEntry{}, ErrNotFound
	}
	if err != nil {
		return CatalogEntry{}, err
	}

	entry.Delimiter = delimiter.String
	if entry.IndexedAt, err = time.Parse(time.RFC3339, indexedAt); err != nil {
		return CatalogEntry{}, fmt.Errorf("parse indexed_at: %w", err)
	}
	if err := json.Unmarshal([]byte(columnsJSON), &entry.Columns); err != nil {
		return CatalogEntry{}, fmt.Errorf("unmarshal columns: %w", err)
	}
	if err := json.Unmarshal([]byte(searchableJSON), &entry.SearchableColumns); err != nil {
		return CatalogEntry{}, fmt.Errorf("unmarshal searchable_columns: %w", err)
	}
	return entry, nil
}

// DeleteEntry removes every trace of fileID from the catalog, stats, and
// search tables, per forget_recent/clear_all (§6) and the stale-entry
// purge rule (§6's startup reconciliation, §7.5's invariant-violation
// recovery).
func (d *DB) DeleteEntry(ctx context.Context, fileID string) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM search WHERE file_id = ?`,
		`DELETE FROM stats WHERE file_id = ?`,
		`DELETE FROM catalog WHERE file_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, fileID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListFileIDs returns every file-id currently in the catalog, newest-indexed
// first. Used by clear_all and by startup reconciliation against on-disk
// artifacts.
func (d *DB) ListFileIDs(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT file_id FROM catalog ORDER BY indexed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListEntries returns the full catalog, newest-indexed first.
func (d *DB) ListEntries(ctx context.Context) ([]CatalogEntry, error) {
	ids, err := d.ListFileIDs(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]CatalogEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := d.GetEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetStats resolves the stats entry for fileID.
func (d *DB) GetStats(ctx context.Context, fileID string) ([]ColumnStats, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT stats_json FROM stats WHERE file_id = ?`, fileID)
	var statsJSON string
	if err := row.Scan(&statsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var stats []ColumnStats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}
