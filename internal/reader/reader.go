// Package reader implements the Record Reader (C7): given a file-id and
// row-index, it resolves the stored byte offset, seeks into the source
// file, and decodes exactly one record, using the same per-format
// decoding rules the streaming parser (C3) uses while indexing. Three LRU
// caches (internal/lru) sit in front of the expensive parts: catalog
// metadata, position-table buffers, and fully decoded records.
//
// Grounded on the teacher's cache.Cache + fileloader.Reader split: a
// caching layer in front of a seek-based source reader, generalized from
// CSV-only row access to the four record formats this engine supports.
package reader

import (
	"context"
	"fmt"
	"os"
	"sync"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/engineerr"
	"dataexplorer/internal/indexwriter"
	"dataexplorer/internal/lru"
	"dataexplorer/internal/positiontable"
)

// ScratchOverread is the extra margin past end_hint read into the scratch
// buffer, per §4.5 step 3: "read(start, min(end_hint - start + 500,
// 32768))". Decoding only inspects the leading slice needed to recognize
// the record's end marker, so over-reads are safe.
const ScratchOverread = 500

// MaxScratchRead bounds the scratch buffer's size regardless of end_hint.
const MaxScratchRead = 32768

// recordKey is the decoded-record cache key, per §9's "structured key
// (file_id, row_index)" design note.
type recordKey struct {
	FileID   string
	RowIndex int64
}

// Reader serves get_record/page/search decode requests, per §4.5/§4.6.
type Reader struct {
	db        *catalogdb.DB
	readiness *Readiness

	metadata *lru.Cache[string, catalogdb.CatalogEntry]
	tables   *lru.Cache[string, *positiontable.Table]
	records  *lru.Cache[recordKey, map[string]interface{}]

	handlesMu sync.Mutex
	handles   map[string]*os.File
}

// Sizes configures the three LRU caches, per §3's Lifecycles ("Record
// cache and position-buffer cache: process-lifetime, LRU bounded").
type Sizes struct {
	MetadataFiles int
	PositionFiles int
	Records       int
}

// New creates a Reader backed by db, with a Readiness tracker shared with
// the engine, which marks a file-id pending while its indexing job runs, so
// page/search/get_record can wait on in-flight jobs.
func New(db *catalogdb.DB, readiness *Readiness, sizes Sizes) *Reader {
	return &Reader{
		db:        db,
		readiness: readiness,
		metadata:  lru.New[string, catalogdb.CatalogEntry](sizes.MetadataFiles),
		tables:    lru.New[string, *positiontable.Table](sizes.PositionFiles),
		records:   lru.New[recordKey, map[string]interface{}](sizes.Records),
		handles:   make(map[string]*os.File),
	}
}

// indexDir is threaded separately from db since the position table lives
// on disk, not in search.db; callers pass it per call rather than storing
// it, since the coordinator and reader agree on one fixed directory.
func (r *Reader) positionTablePath(indexDir, fileID string) string {
	return indexwriter.PositionTablePath(indexDir, fileID)
}

// GetRecord resolves fileID's catalog entry and position table, seeks to
// row rowIndex's recorded offset, and decodes it, per §4.5 steps 1-5.
func (r *Reader) GetRecord(ctx context.Context, indexDir, fileID string, rowIndex int64) (map[string]interface{}, error) {
	if err := r.readiness.Wait(ctx, fileID); err != nil {
		return nil, err
	}

	entry, err := r.resolveMetadata(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rowIndex < 0 || rowIndex >= entry.TotalRecords {
		return nil, engineerr.Validationf("row index %d out of range [0,%d) for %s", rowIndex, entry.TotalRecords, fileID)
	}

	key := recordKey{FileID: fileID, RowIndex: rowIndex}
	if cached, ok := r.records.Get(key); ok {
		return withIndex(cloneRecord(cached), rowIndex), nil
	}

	table, err := r.resolveTable(indexDir, fileID)
	if err != nil {
		return nil, err
	}
	decoded, err := r.decodeRow(entry, table, fileID, rowIndex)
	if err != nil {
		return nil, err
	}

	r.records.Put(key, decoded)
	return withIndex(cloneRecord(decoded), rowIndex), nil
}

// decodeRow seeks to rowIndex's stored offset and decodes the record,
// without touching the cache (callers decide whether to cache the result).
func (r *Reader) decodeRow(entry catalogdb.CatalogEntry, table *positiontable.Table, fileID string, rowIndex int64) (map[string]interface{}, error) {
	start, ok := table.Start(int(rowIndex))
	if !ok {
		return nil, engineerr.Invariantf("positiontable: no entry %d for %s", rowIndex, fileID)
	}
	endHint, _ := table.EndHint(int(rowIndex), uint64(entry.Size))

	readLen := endHint - start + ScratchOverread
	if readLen > MaxScratchRead {
		readLen = MaxScratchRead
	}
	buf, err := r.readAt(fileID, entry.Path, int64(start), int(readLen))
	if err != nil {
		return nil, fmt.Errorf("reader: read %s at %d: %w", entry.Path, start, err)
	}

	return decodeRecord(entry, buf)
}

// readAt reads up to n bytes at offset off from fileID's source file,
// reusing a pooled *os.File handle per file-id (§4.5 step 3: "Open the
// source file (handle pool, one per active file-id)").
func (r *Reader) readAt(fileID, path string, off int64, n int) ([]byte, error) {
	f, err := r.handle(fileID, path)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, off)
	if read == 0 && err != nil {
		return nil, err
	}
	return buf[:read], nil
}

func (r *Reader) handle(fileID, path string) (*os.File, error) {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()
	if f, ok := r.handles[fileID]; ok {
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r.handles[fileID] = f
	return f, nil
}

func (r *Reader) resolveMetadata(ctx context.Context, fileID string) (catalogdb.CatalogEntry, error) {
	if entry, ok := r.metadata.Get(fileID); ok {
		return entry, nil
	}
	entry, err := r.db.GetEntry(ctx, fileID)
	if err != nil {
		return catalogdb.CatalogEntry{}, err
	}
	r.metadata.Put(fileID, entry)
	return entry, nil
}

func (r *Reader) resolveTable(indexDir, fileID string) (*positiontable.Table, error) {
	if table, ok := r.tables.Get(fileID); ok {
		return table, nil
	}
	table, err := positiontable.Load(r.positionTablePath(indexDir, fileID))
	if err != nil {
		return nil, fmt.Errorf("reader: load position table for %s: %w", fileID, err)
	}
	r.tables.Put(fileID, table)
	return table, nil
}

// Invalidate evicts every cached entry for fileID (metadata, position
// table, decoded records) and closes its pooled file handle, per §4.5's
// cache invalidation rule ("by file-id, on forget, re-index, or path
// change") and §3's Lifecycles.
func (r *Reader) Invalidate(fileID string) {
	r.metadata.Remove(fileID)
	r.tables.Remove(fileID)
	r.records.RemoveMatching(func(k recordKey) bool { return k.FileID == fileID })

	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()
	if f, ok := r.handles[fileID]; ok {
		f.Close()
		delete(r.handles, fileID)
	}
}

func withIndex(rec map[string]interface{}, rowIndex int64) map[string]interface{} {
	rec["_index"] = rowIndex
	return rec
}

func cloneRecord(rec map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
