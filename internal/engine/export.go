package engine

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"dataexplorer/internal/catalogdb"
)

// exportPageSize bounds each internal page/search call export makes while
// streaming rows to disk, independent of the 1000-row cap page()/search()
// enforce on external callers.
const exportPageSize = 1000

// Export implements export(id, format, filters?, search?, limit?), per §6
// and SPEC_FULL §C.2: re-run the same page/search query C6 would run to
// collect the matching row-index set, decode each through C7, and stream
// the result to Destination as CSV (encoding/csv) or NDJSON
// (encoding/json, one object per line). No cap beyond req.Limit.
func (e *Engine) Export(req ExportRequest) (int64, error) {
	if err := validateFileID(req.FileID); err != nil {
		return 0, err
	}
	if err := validateExportFormat(req.Format); err != nil {
		return 0, err
	}

	entry, err := e.db.GetEntry(context.Background(), req.FileID)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(req.Destination)
	if err != nil {
		return 0, fmt.Errorf("engine: create export destination %s: %w", req.Destination, err)
	}
	defer f.Close()

	var writeRow func(map[string]interface{}) error
	var flush func() error
	if req.Format == "csv" {
		cw := csv.NewWriter(f)
		header := append(append([]string{}, entry.Columns...), "_index")
		if err := cw.Write(header); err != nil {
			return 0, err
		}
		writeRow = func(row map[string]interface{}) error {
			record := make([]string, len(header))
			for i, col := range header {
				record[i] = fmt.Sprint(row[col])
			}
			return cw.Write(record)
		}
		flush = func() error { cw.Flush(); return cw.Error() }
	} else {
		enc := json.NewEncoder(f)
		writeRow = func(row map[string]interface{}) error { return enc.Encode(row) }
		flush = func() error { return nil }
	}

	var written int64
	page := 1
	for req.Limit <= 0 || written < int64(req.Limit) {
		rows, hasMore, err := e.exportFetch(req, page, exportPageSize)
		if err != nil {
			return written, err
		}
		for _, row := range rows {
			if req.Limit > 0 && written >= int64(req.Limit) {
				break
			}
			if err := writeRow(row); err != nil {
				return written, err
			}
			written++
		}
		if !hasMore || len(rows) == 0 {
			break
		}
		page++
	}

	if err := flush(); err != nil {
		return written, err
	}
	return written, f.Close()
}

// exportFetch resolves one internal page of decoded rows, using the
// search path when req.Fields is non-empty and the page path otherwise.
func (e *Engine) exportFetch(req ExportRequest, page, limit int) ([]map[string]interface{}, bool, error) {
	pr := catalogdb.PageRequest{Page: page, Limit: limit}
	if len(req.Fields) > 0 {
		fields, err := toCatalogFields(req.Fields)
		if err != nil {
			return nil, false, err
		}
		result, err := e.reader.Search(context.Background(), e.indexDir, req.FileID, fields, pr)
		if err != nil {
			return nil, false, err
		}
		return result.Rows, int64(page*limit) < result.Total, nil
	}

	result, err := e.reader.Page(context.Background(), e.indexDir, req.FileID, req.Filters, pr)
	if err != nil {
		return nil, false, err
	}
	return result.Rows, int64(page*limit) < result.Total, nil
}
