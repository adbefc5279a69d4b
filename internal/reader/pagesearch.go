package reader

import (
	"context"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/positiontable"
)

// PageResult is the decoded-row response to page(id, page, limit, filters),
// per §6.
type PageResult struct {
	Rows  []map[string]interface{}
	Total int64
}

// SearchResult is the decoded-row response to search(...), per §6: "same
// shape + counts + elapsed-ms". ElapsedMs is stamped by the caller (the
// request facade), since this package has no wall-clock dependency.
type SearchResult struct {
	Rows  []map[string]interface{}
	Total int64
}

// Page resolves one page of (row_index, position) pairs via the secondary
// index and decodes each into a full record, per §4.4's page operation and
// §4.5's decode steps.
func (r *Reader) Page(ctx context.Context, indexDir, fileID string, filters map[string]string, req catalogdb.PageRequest) (PageResult, error) {
	if err := r.readiness.Wait(ctx, fileID); err != nil {
		return PageResult{}, err
	}
	entry, err := r.resolveMetadata(ctx, fileID)
	if err != nil {
		return PageResult{}, err
	}

	total, err := r.db.Count(ctx, fileID, entry.SearchableColumns, filters)
	if err != nil {
		return PageResult{}, err
	}
	matched, err := r.db.PageRows(ctx, fileID, entry.SearchableColumns, filters, req)
	if err != nil {
		return PageResult{}, err
	}

	rows, err := r.decodeRows(ctx, indexDir, fileID, entry, matched)
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{Rows: rows, Total: total}, nil
}

// Search resolves matching (row_index, position) pairs via the secondary
// index's operator-based query and decodes each into a full record, per
// §4.4's search operation.
func (r *Reader) Search(ctx context.Context, indexDir, fileID string, fields []catalogdb.Field, req catalogdb.PageRequest) (SearchResult, error) {
	if err := r.readiness.Wait(ctx, fileID); err != nil {
		return SearchResult{}, err
	}
	entry, err := r.resolveMetadata(ctx, fileID)
	if err != nil {
		return SearchResult{}, err
	}

	total, err := r.db.SearchCount(ctx, fileID, entry.SearchableColumns, fields)
	if err != nil {
		return SearchResult{}, err
	}
	matched, err := r.db.SearchRows(ctx, fileID, entry.SearchableColumns, fields, req)
	if err != nil {
		return SearchResult{}, err
	}

	rows, err := r.decodeRows(ctx, indexDir, fileID, entry, matched)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Rows: rows, Total: total}, nil
}

// decodeRows decodes every matched row, consulting the decoded-record
// cache first (keyed by row_index, same as GetRecord).
func (r *Reader) decodeRows(ctx context.Context, indexDir, fileID string, entry catalogdb.CatalogEntry, matched []catalogdb.Row) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, len(matched))
	var table *positiontable.Table
	for _, m := range matched {
		key := recordKey{FileID: fileID, RowIndex: m.RowIndex}
		if cached, ok := r.records.Get(key); ok {
			rows = append(rows, withIndex(cloneRecord(cached), m.RowIndex))
			continue
		}
		if table == nil {
			t, err := r.resolveTable(indexDir, fileID)
			if err != nil {
				return nil, err
			}
			table = t
		}
		decoded, err := r.decodeRow(entry, table, fileID, m.RowIndex)
		if err != nil {
			return nil, err
		}
		r.records.Put(key, decoded)
		rows = append(rows, withIndex(cloneRecord(decoded), m.RowIndex))
	}
	return rows, nil
}
