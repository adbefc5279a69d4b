package parser

import "bytes"

// line is one physical line discovered by a lineFeeder, with the absolute
// byte offset of its first byte in the source file. Bytes excludes the
// trailing "\n" (and a trailing "\r", if present).
type line struct {
	Offset uint64
	Bytes  []byte
}

// lineFeeder splits a sequence of chunks into lines, carrying any trailing
// partial line across chunk boundaries so a line is never truncated mid-scan
// (§4.3: "A leftover buffer carries partial trailing bytes across chunk
// boundaries so line scans are never truncated mid-record").
type lineFeeder struct {
	leftover []byte
	// base is the absolute offset of the first byte of leftover.
	base uint64
}

// feed appends chunk (which started at the absolute offset chunkStart) to
// any carried-over leftover, emits every complete line found, and updates
// the leftover for the next chunk.
func (lf *lineFeeder) feed(chunk []byte, chunkStart uint64) []line {
	if len(lf.leftover) == 0 {
		lf.base = chunkStart
	}
	combined := append(lf.leftover, chunk...)

	var lines []line
	pos := 0
	for {
		idx := bytes.IndexByte(combined[pos:], '\n')
		if idx < 0 {
			break
		}
		end := pos + idx
		raw := combined[pos:end]
		if n := len(raw); n > 0 && raw[n-1] == '\r' {
			raw = raw[:n-1]
		}
		lines = append(lines, line{Offset: lf.base + uint64(pos), Bytes: raw})
		pos = end + 1
	}

	remaining := combined[pos:]
	lf.leftover = append([]byte(nil), remaining...)
	lf.base = lf.base + uint64(pos)

	return lines
}

// flush returns the final, newline-less trailing line (if any), per the
// boundary rule that a file without a trailing newline still yields one
// final record spanning to EOF.
func (lf *lineFeeder) flush() (line, bool) {
	if len(lf.leftover) == 0 {
		return line{}, false
	}
	raw := lf.leftover
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	return line{Offset: lf.base, Bytes: raw}, true
}
