// Package config loads the engine's small set of ambient tunables from a
// YAML file, grounded on the teacher's settings package (itself a
// gopkg.in/yaml.v3-backed user-preferences store) but narrowed to the
// handful of values this spec exposes as constants rather than
// user-editable preferences: chunk size, LRU cache sizes, the progress
// throttle interval, and the stats accumulator's caps.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dataexplorer/internal/parser"
	"dataexplorer/internal/stats"
)

// Config holds every tunable the engine reads at startup. Zero-value
// fields are filled from Defaults() before use, so a partial YAML file
// (or none at all) is valid. Of these, engine.Open applies only the three
// cache sizes (to the record reader's LRU caches); the chunk size, progress
// interval, recent-list size and stats caps are loaded but not applied,
// since the parser, recent list and stats accumulator use their own
// package constants.
type Config struct {
	ChunkSizeBytes          int           `yaml:"chunkSizeBytes"`
	ProgressInterval        time.Duration `yaml:"progressInterval"`
	RecordCacheSize         int           `yaml:"recordCacheSize"`
	PositionCacheFiles      int           `yaml:"positionCacheFiles"`
	MetadataCacheFiles      int           `yaml:"metadataCacheFiles"`
	RecentListSize          int           `yaml:"recentListSize"`
	StatsMaxTrackedColumns  int           `yaml:"statsMaxTrackedColumns"`
	StatsMaxDistinctValues  int           `yaml:"statsMaxDistinctValues"`
	StatsTopValuesReturned  int           `yaml:"statsTopValuesReturned"`
}

// Defaults returns the spec's literal values for every tunable (§3, §4.3,
// §4.5), used whenever config.yaml is absent or omits a field.
func Defaults() Config {
	return Config{
		ChunkSizeBytes:         parser.ChunkSize,
		ProgressInterval:       parser.DefaultProgressInterval,
		RecordCacheSize:        1000,
		PositionCacheFiles:     10,
		MetadataCacheFiles:     20,
		RecentListSize:         20,
		StatsMaxTrackedColumns: stats.MaxTrackedColumns,
		StatsMaxDistinctValues: stats.MaxDistinctValues,
		StatsTopValuesReturned: stats.TopValuesReturned,
	}
}

// Load reads and parses path, overlaying any present field onto
// Defaults(). A missing file is not an error: Defaults() is returned
// unchanged, matching the teacher's settings.Load fallback-to-defaults
// behavior on first run.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	overlay := cfg
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, err
	}
	return fillZeroes(cfg, overlay), nil
}

// Save writes cfg to path as YAML, creating or truncating the file.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// fillZeroes returns overlay with any zero-valued field replaced by the
// corresponding field from base, so an incomplete YAML document never
// zeroes out a tunable the user didn't mention.
func fillZeroes(base, overlay Config) Config {
	if overlay.ChunkSizeBytes == 0 {
		overlay.ChunkSizeBytes = base.ChunkSizeBytes
	}
	if overlay.ProgressInterval == 0 {
		overlay.ProgressInterval = base.ProgressInterval
	}
	if overlay.RecordCacheSize == 0 {
		overlay.RecordCacheSize = base.RecordCacheSize
	}
	if overlay.PositionCacheFiles == 0 {
		overlay.PositionCacheFiles = base.PositionCacheFiles
	}
	if overlay.MetadataCacheFiles == 0 {
		overlay.MetadataCacheFiles = base.MetadataCacheFiles
	}
	if overlay.RecentListSize == 0 {
		overlay.RecentListSize = base.RecentListSize
	}
	if overlay.StatsMaxTrackedColumns == 0 {
		overlay.StatsMaxTrackedColumns = base.StatsMaxTrackedColumns
	}
	if overlay.StatsMaxDistinctValues == 0 {
		overlay.StatsMaxDistinctValues = base.StatsMaxDistinctValues
	}
	if overlay.StatsTopValuesReturned == 0 {
		overlay.StatsTopValuesReturned = base.StatsTopValuesReturned
	}
	return overlay
}
