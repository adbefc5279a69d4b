// Package positiontable implements the on-disk record-offset index (C4):
// a flat array of 48-bit little-endian byte offsets, one per discovered
// record, in source order.
package positiontable

import (
	"bufio"
	"fmt"
	"os"
)

// EntrySize is the on-disk width of a single position entry, in bytes.
const EntrySize = 6

// Writer appends record offsets to a position-table file, in source order.
// Entries must be strictly increasing; this is enforced so a bug upstream
// in the streaming parser is caught before it corrupts the table.
type Writer struct {
	f    *os.File
	w    *bufio.Writer
	last uint64
	n    int
	open bool
}

// Create opens path for writing, truncating any existing content.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, w: bufio.NewWriter(f), open: true}, nil
}

// Append writes the next entry. offset must be strictly greater than the
// previous one (the table's empty at the first call).
func (w *Writer) Append(offset uint64) error {
	if w.n > 0 && offset <= w.last {
		return fmt.Errorf("positiontable: offset %d is not strictly greater than previous offset %d", offset, w.last)
	}
	var buf [EntrySize]byte
	putUint48(buf[:], offset)
	if _, err := w.w.Write(buf[:]); err != nil {
		return err
	}
	w.last = offset
	w.n++
	return nil
}

// Count returns the number of entries written so far.
func (w *Writer) Count() int { return w.n }

// Flush flushes buffered writes to the underlying file without closing it.
func (w *Writer) Flush() error { return w.w.Flush() }

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if !w.open {
		return nil
	}
	w.open = false
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Abort closes and removes the partially written file, per the coordinator's
// cancel/error cleanup rule that no partial position-table file survives.
func (w *Writer) Abort() error {
	path := w.f.Name()
	_ = w.Close()
	return os.Remove(path)
}

// Table is a read-only, load-on-demand view over a position-table file.
// Per §4.4 the whole table is small enough that a single bounded read
// satisfies the "mmap-equivalent" requirement; callers needing memory
// discipline across many open files should go through a cache keyed by
// file-id (see internal/reader).
type Table struct {
	entries []uint64
}

// Load reads the entire position-table file at path into memory.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%EntrySize != 0 {
		return nil, fmt.Errorf("positiontable: %s has %d bytes, not a multiple of %d", path, len(data), EntrySize)
	}
	n := len(data) / EntrySize
	entries := make([]uint64, n)
	for i := 0; i < n; i++ {
		entries[i] = getUint48(data[i*EntrySize:])
	}
	return &Table{entries: entries}, nil
}

// Len returns the number of entries in the table.
func (t *Table) Len() int { return len(t.entries) }

// Start returns the byte offset of record i's first byte.
func (t *Table) Start(i int) (uint64, bool) {
	if i < 0 || i >= len(t.entries) {
		return 0, false
	}
	return t.entries[i], true
}

// EndHint returns a conservative upper bound for record i's end: the start
// of the next record if one exists, or fileSize otherwise, per §4.5 step 2.
func (t *Table) EndHint(i int, fileSize uint64) (uint64, bool) {
	if i < 0 || i >= len(t.entries) {
		return 0, false
	}
	if i+1 < len(t.entries) {
		return t.entries[i+1], true
	}
	return fileSize, true
}

// IsStrictlyIncreasing reports whether every entry is strictly greater than
// its predecessor and less than fileSize, per §3's Record Index Entry
// invariant. Used to detect the "invariant violation" error category (§7.5).
func (t *Table) IsStrictlyIncreasing(fileSize uint64) bool {
	for i, v := range t.entries {
		if v >= fileSize {
			return false
		}
		if i > 0 && v <= t.entries[i-1] {
			return false
		}
	}
	return true
}

func putUint48(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
}

func getUint48(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 |
		uint64(b[3])<<24 | uint64(b[4])<<32 | uint64(b[5])<<40
}
