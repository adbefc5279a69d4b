package coordinator

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/indexwriter"
	"dataexplorer/internal/sniff"
)

func newTestCoordinator(t *testing.T) (*Coordinator, string) {
	t.Helper()
	db, err := catalogdb.Open(filepath.Join(t.TempDir(), "search.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, t.TempDir(), nil), t.TempDir()
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestStartRunsJobToCompletion(t *testing.T) {
	c, srcDir := newTestCoordinator(t)
	path := writeSource(t, srcDir, "data.csv", "name,email\nalice,a@x\nbob,b@y\n")

	var mu sync.Mutex
	var terminal Status
	done := make(chan struct{})

	err := c.Start(indexwriter.Job{
		FileID:  "abc123",
		Path:    path,
		Name:    "data.csv",
		Size:    int64(len("name,email\nalice,a@x\nbob,b@y\n")),
		Sniffed: sniff.Result{Format: sniff.CSV, Delimiter: ','},
	}, func(s Status) {
		mu.Lock()
		defer mu.Unlock()
		if s.State != Indexing {
			terminal = s
			close(done)
		}
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal status")
	}

	mu.Lock()
	defer mu.Unlock()
	if terminal.State != Complete {
		t.Fatalf("terminal state = %v, want Complete", terminal.State)
	}
	if c.State("abc123") != Complete {
		t.Fatalf("State() = %v, want Complete", c.State("abc123"))
	}
}

func TestStartRejectsSecondJobWhileIndexing(t *testing.T) {
	c, srcDir := newTestCoordinator(t)
	path := writeSource(t, srcDir, "data.csv", "name\nalice\n")

	j := indexwriter.Job{FileID: "dup", Path: path, Sniffed: sniff.Result{Format: sniff.CSV, Delimiter: ','}}

	done := make(chan struct{})
	if err := c.Start(j, func(s Status) {
		if s.State != Indexing {
			close(done)
		}
	}); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	// Force the state to Indexing synchronously for a deterministic
	// assertion, regardless of how fast the first job's goroutine runs.
	c.mutex.Lock()
	c.jobs["dup"].state = Indexing
	c.mutex.Unlock()

	if err := c.Start(j, nil); err == nil {
		t.Fatal("expected second Start to be rejected")
	}

	<-done
}
