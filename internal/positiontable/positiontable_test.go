package positiontable

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc123.index.bin")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	offsets := []uint64{0, 42, 1 << 40}
	for _, off := range offsets {
		if err := w.Append(off); err != nil {
			t.Fatalf("Append(%d): %v", off, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != int64(len(offsets)*EntrySize) {
		t.Fatalf("file size = %d, want %d", info.Size(), len(offsets)*EntrySize)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Len() != len(offsets) {
		t.Fatalf("Len() = %d, want %d", table.Len(), len(offsets))
	}
	for i, want := range offsets {
		got, ok := table.Start(i)
		if !ok || got != want {
			t.Fatalf("Start(%d) = %d,%v want %d", i, got, ok, want)
		}
	}
}

func TestAppendRejectsNonIncreasingOffsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.index.bin")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer w.Close()

	if err := w.Append(10); err != nil {
		t.Fatalf("Append(10): %v", err)
	}
	if err := w.Append(10); err == nil {
		t.Fatalf("expected error appending a non-increasing offset")
	}
	if err := w.Append(5); err == nil {
		t.Fatalf("expected error appending a decreasing offset")
	}
}

func TestEndHint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "y.index.bin")
	w, _ := Create(path)
	w.Append(0)
	w.Append(10)
	w.Close()

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if end, ok := table.EndHint(0, 100); !ok || end != 10 {
		t.Fatalf("EndHint(0) = %d,%v want 10", end, ok)
	}
	if end, ok := table.EndHint(1, 100); !ok || end != 100 {
		t.Fatalf("EndHint(1) = %d,%v want 100 (fileSize fallback)", end, ok)
	}
}

func TestAbortRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z.index.bin")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.Append(1)
	if err := w.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err = %v", err)
	}
}
