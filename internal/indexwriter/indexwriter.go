// Package indexwriter implements the Index Writer (C4): it drives one
// format-specific parser (C3) over a source file, persists the resulting
// position table (internal/positiontable) and accumulates per-column
// distributions (internal/stats), and commits the catalog + secondary
// index rows (internal/catalogdb) for that file-id inside a single
// transaction, per §4.4: "Writes happen inside a single transaction per
// indexing job; if the job fails or is cancelled, the transaction is
// rolled back before the catalog entry is visible."
//
// Grounded on the teacher's cache.Cache write path for the "populate, then
// make visible" shape, generalized from an in-memory map swap to a
// position-table file plus a SQL transaction.
package indexwriter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/engineerr"
	"dataexplorer/internal/logging"
	"dataexplorer/internal/parser"
	"dataexplorer/internal/positiontable"
	"dataexplorer/internal/sniff"
)

// PositionTablePath returns the on-disk path of fileID's position table,
// per §6's `{id}.index.bin` artifact.
func PositionTablePath(indexDir, fileID string) string {
	return filepath.Join(indexDir, fileID+".index.bin")
}

// Job names the source being indexed, its file-id, and its sniffed format.
// Size is passed in by the caller (the engine) rather than re-stat'd here;
// for a decompressed source it is the size of the decompressed copy at
// Path, not of the file FileID was derived from.
type Job struct {
	FileID    string
	Path      string
	Name      string
	Size      int64
	Sniffed   sniff.Result
	IndexedAt time.Time
}

// Summary reports what a completed indexing job produced.
type Summary struct {
	TotalRecords  int64
	Columns       []string
	Searchable    []string
	WarningsCount int
	// Warnings holds up to maxWarningMessages human-readable warning
	// strings, per SPEC_FULL's "warnings surfaced on completion" addition.
	Warnings []string
}

// pickParser selects the C3 variant for a sniffed format.
func pickParser(f sniff.Format) (parser.Parser, error) {
	switch f {
	case sniff.CSV:
		return parser.CSVParser{}, nil
	case sniff.NDJSON:
		return parser.NDJSONParser{}, nil
	case sniff.JSONArray:
		return parser.JSONArrayParser{}, nil
	case sniff.VCard:
		return parser.VCardParser{}, nil
	default:
		return nil, engineerr.Invariantf("indexwriter: unknown format %q", f)
	}
}

// catalogType maps a sniffed format back to the coarse extension category
// §6 validates open_file_info against ({json,csv,vcf}); ndjson and
// json-array are both sniffed from a .json extension.
func catalogType(f sniff.Format) string {
	switch f {
	case sniff.NDJSON, sniff.JSONArray:
		return "json"
	case sniff.VCard:
		return "vcf"
	default:
		return "csv"
	}
}

// Write runs one indexing job to completion: stream-parse path, write the
// position table at PositionTablePath(indexDir, job.FileID), accumulate
// stats, and commit catalog + stats + search rows for job.FileID in a
// single transaction. On cancellation or error, every partial artifact
// (position-table file, transaction) is rolled back before returning, per
// §4.3's cancellation contract and §4.6's coordinator cleanup rule.
func Write(ctx context.Context, db *catalogdb.DB, indexDir string, job Job, progress parser.ProgressFunc, log logging.Logger) (Summary, error) {
	log = logging.Of(log)

	p, err := pickParser(job.Sniffed.Format)
	if err != nil {
		return Summary{}, err
	}

	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("indexwriter: create index dir: %w", err)
	}
	ptPath := PositionTablePath(indexDir, job.FileID)
	ptWriter, err := positiontable.Create(ptPath)
	if err != nil {
		return Summary{}, fmt.Errorf("indexwriter: create position table: %w", err)
	}

	ix, err := db.BeginIndexTx(ctx)
	if err != nil {
		_ = ptWriter.Abort()
		return Summary{}, fmt.Errorf("indexwriter: begin transaction: %w", err)
	}

	sink := &recordSink{ctx: ctx, ix: ix, ptWriter: ptWriter, fileID: job.FileID}

	result, err := p.Parse(ctx, job.Path, job.Sniffed.Delimiter, sink, progress)
	if err != nil {
		_ = ptWriter.Abort()
		_ = ix.Rollback()
		if _, cancelled := err.(parser.ErrCancelled); cancelled {
			log.Log("info", fmt.Sprintf("index %s: cancelled", job.FileID))
			return Summary{}, engineerr.Cancelled{}
		}
		log.Log("error", fmt.Sprintf("index %s: parse failed: %v", job.FileID, err))
		return Summary{}, fmt.Errorf("indexwriter: parse %s: %w", job.Path, err)
	}
	if sink.err != nil {
		_ = ptWriter.Abort()
		_ = ix.Rollback()
		log.Log("error", fmt.Sprintf("index %s: write failed: %v", job.FileID, sink.err))
		return Summary{}, fmt.Errorf("indexwriter: write %s: %w", job.FileID, sink.err)
	}

	if err := ix.ResetFile(ctx, job.FileID); err != nil {
		_ = ptWriter.Abort()
		_ = ix.Rollback()
		return Summary{}, fmt.Errorf("indexwriter: reset file: %w", err)
	}
	if err := sink.flush(ctx, job.FileID); err != nil {
		_ = ptWriter.Abort()
		_ = ix.Rollback()
		return Summary{}, fmt.Errorf("indexwriter: flush search rows: %w", err)
	}

	if err := ix.SetStats(ctx, job.FileID, sink.finishStats()); err != nil {
		_ = ptWriter.Abort()
		_ = ix.Rollback()
		return Summary{}, fmt.Errorf("indexwriter: set stats: %w", err)
	}

	entry := catalogdb.CatalogEntry{
		FileID:            job.FileID,
		Path:              job.Path,
		Name:              job.Name,
		Size:              job.Size,
		Type:              catalogType(job.Sniffed.Format),
		Format:            string(job.Sniffed.Format),
		Delimiter:         delimiterString(job.Sniffed),
		IndexedAt:         job.IndexedAt,
		TotalRecords:      result.TotalRecords,
		Columns:           result.Columns,
		SearchableColumns: result.Searchable,
	}
	if err := ix.SetCatalogEntry(ctx, entry); err != nil {
		_ = ptWriter.Abort()
		_ = ix.Rollback()
		return Summary{}, fmt.Errorf("indexwriter: set catalog entry: %w", err)
	}

	if err := ptWriter.Close(); err != nil {
		_ = ix.Rollback()
		return Summary{}, fmt.Errorf("indexwriter: close position table: %w", err)
	}
	if err := ix.Commit(); err != nil {
		return Summary{}, fmt.Errorf("indexwriter: commit: %w", err)
	}

	log.Log("info", fmt.Sprintf("index %s: %d records, %d warnings", job.FileID, result.TotalRecords, result.WarningsCount))
	return Summary{
		TotalRecords:  result.TotalRecords,
		Columns:       result.Columns,
		Searchable:    result.Searchable,
		WarningsCount: result.WarningsCount,
		Warnings:      sink.warningMsgs,
	}, nil
}

func delimiterString(r sniff.Result) string {
	if r.Format != sniff.CSV || r.Delimiter == 0 {
		return ""
	}
	return string(r.Delimiter)
}
