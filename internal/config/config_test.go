package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("Load() = %+v, want Defaults()", cfg)
	}
}

func TestSaveThenLoadOverlaysPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, Config{RecordCacheSize: 500}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RecordCacheSize != 500 {
		t.Fatalf("RecordCacheSize = %d, want 500", cfg.RecordCacheSize)
	}
	if cfg.ChunkSizeBytes != Defaults().ChunkSizeBytes {
		t.Fatalf("ChunkSizeBytes = %d, want default", cfg.ChunkSizeBytes)
	}
}
