package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dataexplorer/internal/fingerprint"
	"dataexplorer/internal/indexwriter"
	"dataexplorer/internal/sniff"
)

// legacyMeta mirrors the pre-search.db `{id}.meta.json` artifact described
// in §6: a standalone JSON catalog entry, one file per file-id, predating
// the relational catalog table.
type legacyMeta struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// reconcile implements §6's startup reconciliation rule: "any {id}.*.bin/
// {id}.*.json present without a corresponding search.db row is lazily
// migrated; any entry in search.db without an accompanying
// {id}.index.bin is considered stale and purged." Grounded on the
// teacher's app.go startup sequence, which likewise walks its cache
// directory once at launch to drop entries whose backing file vanished.
func (e *Engine) reconcile(ctx context.Context) error {
	if err := e.migrateLegacyArtifacts(ctx); err != nil {
		return fmt.Errorf("migrate legacy artifacts: %w", err)
	}
	return e.purgeStaleEntries(ctx)
}

func (e *Engine) migrateLegacyArtifacts(ctx context.Context) error {
	entries, err := os.ReadDir(e.indexDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	existing, err := e.db.ListFileIDs(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	for _, dirEntry := range entries {
		name := dirEntry.Name()
		if !strings.HasSuffix(name, ".meta.json") {
			continue
		}
		fileID := strings.TrimSuffix(name, ".meta.json")
		if known[fileID] {
			continue
		}
		if err := e.migrateOne(ctx, fileID); err != nil {
			e.log.Log("error", fmt.Sprintf("migrate legacy artifact %s: %v", fileID, err))
		}
	}
	return nil
}

// migrateOne re-derives fileID's catalog/search/stats rows by re-running a
// full indexing job against the path recorded in its legacy metadata. The
// legacy position table and stats files are not trusted directly: if the
// source has moved or changed identity since the legacy artifact was
// written, fingerprint.Compute will no longer agree with fileID, and the
// legacy files are left in place with no catalog row created for them (the
// stale-purge pass only examines catalog rows).
func (e *Engine) migrateOne(ctx context.Context, fileID string) error {
	data, err := os.ReadFile(filepath.Join(e.indexDir, fileID+".meta.json"))
	if err != nil {
		return err
	}
	var meta legacyMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}

	info, err := os.Stat(meta.Path)
	if err != nil {
		// Source no longer reachable; nothing to migrate.
		return nil
	}
	if got := fingerprint.Compute(meta.Path, info.Size(), info.ModTime().UnixMilli()); got != fileID {
		// Identity has drifted since the legacy artifact was written.
		return nil
	}

	sniffed, err := sniff.SniffFile(meta.Path)
	if err != nil {
		return err
	}
	_, err = indexwriter.Write(ctx, e.db, e.indexDir, indexwriter.Job{
		FileID:    fileID,
		Path:      meta.Path,
		Name:      meta.Name,
		Size:      info.Size(),
		Sniffed:   sniffed,
		IndexedAt: time.Now(),
	}, nil, e.log)
	if err != nil {
		return err
	}
	e.log.Log("info", fmt.Sprintf("migrated legacy artifact for %s", fileID))
	for _, suffix := range []string{".meta.json", ".stats.json"} {
		_ = os.Remove(filepath.Join(e.indexDir, fileID+suffix))
	}
	return nil
}

func (e *Engine) purgeStaleEntries(ctx context.Context) error {
	ids, err := e.db.ListFileIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := os.Stat(indexwriter.PositionTablePath(e.indexDir, id)); os.IsNotExist(err) {
			if err := e.db.DeleteEntry(ctx, id); err != nil {
				return err
			}
			e.log.Log("info", fmt.Sprintf("purged stale catalog entry %s (no position table)", id))
		}
	}
	return nil
}
