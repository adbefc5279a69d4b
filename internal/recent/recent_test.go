package recent

import (
	"path/filepath"
	"strconv"
	"testing"
)

func TestTouchDeduplicatesAndOrdersNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	l.Touch(Entry{FileID: "a"})
	l.Touch(Entry{FileID: "b"})
	l.Touch(Entry{FileID: "a"})

	got := l.All()
	if len(got) != 2 || got[0].FileID != "a" || got[1].FileID != "b" {
		t.Fatalf("All() = %+v, want [a b]", got)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.All()) != 2 {
		t.Fatalf("reloaded length = %d, want 2", len(reloaded.All()))
	}
}

func TestTouchTruncatesAtMaxEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	l, _ := Open(path)
	for i := 0; i < MaxEntries+5; i++ {
		l.Touch(Entry{FileID: "id" + strconv.Itoa(i)})
	}
	if len(l.All()) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(l.All()), MaxEntries)
	}
}

func TestForgetRemovesEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	l, _ := Open(path)
	l.Touch(Entry{FileID: "a"})
	l.Touch(Entry{FileID: "b"})
	l.Forget("a")

	got := l.All()
	if len(got) != 1 || got[0].FileID != "b" {
		t.Fatalf("All() = %+v, want [b]", got)
	}
}

func TestClearEmptiesList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent.json")
	l, _ := Open(path)
	l.Touch(Entry{FileID: "a"})
	l.Clear()
	if len(l.All()) != 0 {
		t.Fatalf("All() not empty after Clear")
	}
}
