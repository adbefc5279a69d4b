package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/compressio"
	"dataexplorer/internal/config"
	"dataexplorer/internal/coordinator"
	"dataexplorer/internal/engineerr"
	"dataexplorer/internal/fingerprint"
	"dataexplorer/internal/indexwriter"
	"dataexplorer/internal/logging"
	"dataexplorer/internal/reader"
	"dataexplorer/internal/recent"
	"dataexplorer/internal/sniff"
)

// Engine is the single long-lived object a host process holds: one per
// application run, wired over one search.db and one indexes/ directory.
// Grounded on the teacher's App struct, which likewise holds one cache,
// one fileloader, one workspace manager per run.
type Engine struct {
	db        *catalogdb.DB
	indexDir  string
	cfg       config.Config
	log       logging.Logger
	recent    *recent.List
	readiness *reader.Readiness
	coord     *coordinator.Coordinator
	reader    *reader.Reader

	warningsMu sync.Mutex
	warnings   map[string]indexwriter.Summary
}

// Open wires every component together: opens search.db, loads config.yaml
// (or its defaults), loads recent.json, reconciles indexDir's on-disk
// artifacts against the catalog, and returns a ready Engine.
func Open(dataDir string, log logging.Logger) (*Engine, error) {
	log = logging.Of(log)
	indexDir := filepath.Join(dataDir, "indexes")
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create index dir: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("engine: load config: %w", err)
	}

	db, err := catalogdb.Open(filepath.Join(indexDir, "search.db"))
	if err != nil {
		return nil, fmt.Errorf("engine: open search.db: %w", err)
	}

	recentList, err := recent.Open(filepath.Join(indexDir, "recent.json"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: open recent.json: %w", err)
	}

	readiness := reader.NewReadiness()
	e := &Engine{
		db:        db,
		indexDir:  indexDir,
		cfg:       cfg,
		log:       log,
		recent:    recentList,
		readiness: readiness,
		coord:     coordinator.New(db, indexDir, log),
		reader: reader.New(db, readiness, reader.Sizes{
			MetadataFiles: cfg.MetadataCacheFiles,
			PositionFiles: cfg.PositionCacheFiles,
			Records:       cfg.RecordCacheSize,
		}),
		warnings: make(map[string]indexwriter.Summary),
	}

	if err := e.reconcile(context.Background()); err != nil {
		log.Log("error", fmt.Sprintf("startup reconciliation: %v", err))
	}
	return e, nil
}

// Close releases search.db's connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// OpenFileInfo implements open_file_info(path), per §6: sniff-identifies
// the file and reports whether a catalog entry already exists, without
// starting an index job.
func (e *Engine) OpenFileInfo(path string) (CatalogView, error) {
	info, err := validatePath(path)
	if err != nil {
		return CatalogView{}, err
	}
	fileID := fingerprint.Compute(path, info.Size(), info.ModTime().UnixMilli())

	entry, err := e.db.GetEntry(context.Background(), fileID)
	if err == catalogdb.ErrNotFound {
		sniffed, sniffErr := sniff.SniffFile(path)
		if sniffErr != nil {
			return CatalogView{}, fmt.Errorf("engine: sniff %s: %w", path, sniffErr)
		}
		return CatalogView{
			FileID:  fileID,
			Path:    path,
			Name:    filepath.Base(path),
			Size:    info.Size(),
			Type:    catalogType(sniffed.Format),
			Format:  string(sniffed.Format),
			Indexed: false,
		}, nil
	}
	if err != nil {
		return CatalogView{}, err
	}
	view := catalogViewFromEntry(entry, true)
	e.attachWarnings(&view)
	return view, nil
}

// ListRecent implements list_recent(), per §6.
func (e *Engine) ListRecent() []RecentEntry {
	entries := e.recent.All()
	out := make([]RecentEntry, len(entries))
	for i, en := range entries {
		out[i] = RecentEntry{
			FileID:       en.FileID,
			Path:         en.Path,
			Name:         en.Name,
			Size:         en.Size,
			Type:         en.Type,
			Format:       en.Format,
			IndexedAt:    en.IndexedAt,
			TotalRecords: en.TotalRecords,
			Columns:      en.Columns,
		}
	}
	return out
}

// ForgetRecent implements forget_recent(id), per §6: removes fileID's
// catalog, stats, search rows and on-disk artifacts, and drops it from the
// recent list.
func (e *Engine) ForgetRecent(fileID string) error {
	if err := validateFileID(fileID); err != nil {
		return err
	}
	if err := e.db.DeleteEntry(context.Background(), fileID); err != nil {
		return err
	}
	e.purgeArtifacts(fileID)
	e.reader.Invalidate(fileID)
	e.forgetWarnings(fileID)
	return e.recent.Forget(fileID)
}

// ClearAll implements clear_all(), per §6: every index artifact is
// deleted and the recent list is emptied.
func (e *Engine) ClearAll() error {
	ctx := context.Background()
	ids, err := e.db.ListFileIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := e.db.DeleteEntry(ctx, id); err != nil {
			return err
		}
		e.purgeArtifacts(id)
		e.reader.Invalidate(id)
		e.forgetWarnings(id)
	}
	return e.recent.Clear()
}

// StartIndex implements start_index(path), per §6: validates path,
// transparently decompresses it if needed, sniffs its format, and hands a
// Job to the Index Coordinator. onStatus receives every progress tick and
// the terminal event; the returned file-id identifies the job for
// cancel_index.
func (e *Engine) StartIndex(path string, onStatus coordinator.StatusFunc) (string, error) {
	info, err := validatePath(path)
	if err != nil {
		return "", err
	}
	fileID := fingerprint.Compute(path, info.Size(), info.ModTime().UnixMilli())

	parsePath, parseSize, err := e.resolveSource(path, fileID)
	if err != nil {
		return "", err
	}
	// Sniff parsePath's (possibly decompressed) bytes against the original
	// path's extension: a decompressed copy is named {id}.src, which would
	// otherwise always sniff as CSV.
	src, err := os.Open(parsePath)
	if err != nil {
		return "", fmt.Errorf("engine: sniff %s: %w", parsePath, err)
	}
	header := make([]byte, sniff.PeekBytes)
	n, err := io.ReadFull(src, header)
	src.Close()
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("engine: sniff %s: %w", parsePath, err)
	}
	sniffed, err := sniff.Sniff(path, header[:n])
	if err != nil {
		return "", fmt.Errorf("engine: sniff %s: %w", parsePath, err)
	}

	job := indexwriter.Job{
		FileID:    fileID,
		Path:      parsePath,
		Name:      filepath.Base(path),
		Size:      parseSize,
		Sniffed:   sniffed,
		IndexedAt: time.Now(),
	}

	e.readiness.Begin(fileID)
	wrapped := func(status coordinator.Status) {
		if status.State != coordinator.Indexing {
			e.readiness.Done(fileID)
			e.reader.Invalidate(fileID)
		}
		if status.State == coordinator.Complete {
			e.rememberWarnings(fileID, indexwriter.Summary{WarningsCount: status.WarningsCount, Warnings: status.Warnings})
			e.onIndexComplete(job)
		}
		if onStatus != nil {
			onStatus(status)
		}
	}
	if err := e.coord.Start(job, wrapped); err != nil {
		e.readiness.Done(fileID)
		return "", err
	}
	return fileID, nil
}

// resolveSource transparently decompresses path if it carries a
// compression envelope, persisting the decompressed bytes at
// indexDir/{fileID}.src so the position table's offsets (computed over the
// decompressed stream) remain valid for later record reads. The file-id
// itself is always derived from the original, possibly-compressed path
// (already computed by the caller), per SPEC_FULL's compression note.
func (e *Engine) resolveSource(path, fileID string) (string, int64, error) {
	ctype, err := compressio.Detect(path)
	if err != nil {
		return "", 0, fmt.Errorf("engine: detect compression for %s: %w", path, err)
	}
	if ctype == compressio.None {
		info, err := os.Stat(path)
		if err != nil {
			return "", 0, err
		}
		return path, info.Size(), nil
	}

	tmpPath, cleanup, err := compressio.Decompress(path, ctype)
	if err != nil {
		return "", 0, fmt.Errorf("engine: decompress %s: %w", path, err)
	}
	defer cleanup()

	persistPath := filepath.Join(e.indexDir, fileID+".src")
	if err := os.Rename(tmpPath, persistPath); err != nil {
		return "", 0, fmt.Errorf("engine: persist decompressed %s: %w", path, err)
	}
	info, err := os.Stat(persistPath)
	if err != nil {
		return "", 0, err
	}
	return persistPath, info.Size(), nil
}

// CancelIndex implements cancel_index(id), per §6.
func (e *Engine) CancelIndex(fileID string) error {
	if err := validateFileID(fileID); err != nil {
		return err
	}
	e.coord.Cancel(fileID)
	return nil
}

// Page implements page(id, page, limit, filters), per §6.
func (e *Engine) Page(fileID string, filters map[string]string, page, limit int) (PageResponse, error) {
	if err := validateFileID(fileID); err != nil {
		return PageResponse{}, err
	}
	if err := validatePageRequest(page, limit, filters); err != nil {
		return PageResponse{}, err
	}
	result, err := e.reader.Page(context.Background(), e.indexDir, fileID, filters, catalogdb.PageRequest{Page: page, Limit: limit})
	if err != nil {
		return PageResponse{}, err
	}
	return PageResponse{Rows: result.Rows, Total: result.Total, Page: page, Limit: limit}, nil
}

// Search implements search(id, fields, exact, page, limit), per §6/§4.4.
// exact is a pass-through tag stamped onto every result row as `_exact`,
// per §4.5 step 5 and §9's resolved Open Question (no two-phase
// exact-then-partial ordering in the relational path).
func (e *Engine) Search(fileID string, fields []SearchFieldRequest, exact bool, page, limit int) (SearchResponse, error) {
	if err := validateFileID(fileID); err != nil {
		return SearchResponse{}, err
	}
	if err := validatePageRequest(page, limit, nil); err != nil {
		return SearchResponse{}, err
	}
	dbFields, err := toCatalogFields(fields)
	if err != nil {
		return SearchResponse{}, err
	}

	start := time.Now()
	result, err := e.reader.Search(context.Background(), e.indexDir, fileID, dbFields, catalogdb.PageRequest{Page: page, Limit: limit})
	if err != nil {
		return SearchResponse{}, err
	}
	for _, row := range result.Rows {
		row["_exact"] = exact
	}
	return SearchResponse{
		Rows:      result.Rows,
		Total:     result.Total,
		Page:      page,
		Limit:     limit,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}

// GetRecord implements get_record(id, index), per §6.
func (e *Engine) GetRecord(fileID string, rowIndex int64) (map[string]interface{}, error) {
	if err := validateFileID(fileID); err != nil {
		return nil, err
	}
	if rowIndex < 0 {
		return nil, engineerr.Validationf("record index must be >= 0")
	}
	return e.reader.GetRecord(context.Background(), e.indexDir, fileID, rowIndex)
}

// Stats implements stats(id), per §6.
func (e *Engine) Stats(fileID string) ([]catalogdb.ColumnStats, error) {
	if err := validateFileID(fileID); err != nil {
		return nil, err
	}
	return e.db.GetStats(context.Background(), fileID)
}

func toCatalogFields(fields []SearchFieldRequest) ([]catalogdb.Field, error) {
	out := make([]catalogdb.Field, 0, len(fields))
	for _, f := range fields {
		op := catalogdb.Operator(f.Operator)
		switch op {
		case catalogdb.OpContains, catalogdb.OpEquals, catalogdb.OpStartsWith, catalogdb.OpEndsWith, catalogdb.OpNot, catalogdb.OpRegex:
		default:
			return nil, engineerr.Validationf("unknown search operator %q", f.Operator)
		}
		out = append(out, catalogdb.Field{Column: f.Column, Operator: op, Value: f.Value})
	}
	return out, nil
}

// purgeArtifacts removes every on-disk file tied to fileID: the position
// table, a persisted decompressed source (if any), and legacy artifacts.
func (e *Engine) purgeArtifacts(fileID string) {
	for _, suffix := range []string{".index.bin", ".src", ".meta.json", ".stats.json"} {
		_ = os.Remove(filepath.Join(e.indexDir, fileID+suffix))
	}
}

func (e *Engine) onIndexComplete(job indexwriter.Job) {
	entry, err := e.db.GetEntry(context.Background(), job.FileID)
	if err != nil {
		e.log.Log("error", fmt.Sprintf("read back catalog entry for %s: %v", job.FileID, err))
		return
	}
	if err := e.recent.Touch(recent.Entry{
		FileID:       entry.FileID,
		Path:         entry.Path,
		Name:         entry.Name,
		Size:         entry.Size,
		Type:         entry.Type,
		Format:       entry.Format,
		IndexedAt:    entry.IndexedAt.Format(time.RFC3339),
		TotalRecords: entry.TotalRecords,
		Columns:      entry.Columns,
	}); err != nil {
		e.log.Log("error", fmt.Sprintf("touch recent list for %s: %v", job.FileID, err))
	}
}

func (e *Engine) rememberWarnings(fileID string, summary indexwriter.Summary) {
	e.warningsMu.Lock()
	defer e.warningsMu.Unlock()
	e.warnings[fileID] = summary
}

func (e *Engine) forgetWarnings(fileID string) {
	e.warningsMu.Lock()
	defer e.warningsMu.Unlock()
	delete(e.warnings, fileID)
}

func (e *Engine) attachWarnings(view *CatalogView) {
	e.warningsMu.Lock()
	defer e.warningsMu.Unlock()
	if summary, ok := e.warnings[view.FileID]; ok {
		view.WarningsCount = summary.WarningsCount
		view.Warnings = summary.Warnings
	}
}

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
