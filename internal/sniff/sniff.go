// Package sniff classifies a source file's format from its extension and a
// small header peek, grounded on the teacher's fileloader.DetectFileType /
// DetectFileTypeAndCompression split between extension-based and
// content-based detection.
package sniff

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is one of the four record-oriented source formats this engine
// understands.
type Format string

const (
	CSV       Format = "csv"
	NDJSON    Format = "ndjson"
	JSONArray Format = "json-array"
	VCard     Format = "vcf"
)

// PeekBytes is the maximum number of header bytes sniffed from the source.
const PeekBytes = 4096

// delimiterCandidates lists the delimiters considered for CSV, in the
// tie-break order given by §4.2.
var delimiterCandidates = []byte{',', ';', '\t', '|'}

// Result is the outcome of sniffing a source.
type Result struct {
	Format    Format
	Delimiter byte // only meaningful when Format == CSV
}

// UnsupportedExtensionError reports the classification error for an unsupported extension.
type UnsupportedExtensionError struct {
	Ext string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("unsupported file extension %q", e.Ext)
}

// SniffFile opens path and classifies it per §4.2.
func SniffFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("sniff: open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, PeekBytes)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{}, fmt.Errorf("sniff: read %s: %w", path, err)
	}
	header = header[:n]

	return Sniff(path, header)
}

// Sniff classifies a source given its path (for the extension) and a header
// peek of up to PeekBytes. It never needs more than that peek.
func Sniff(path string, header []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".vcf":
		return Result{Format: VCard}, nil
	case ".json":
		trimmed := bytes.TrimLeft(header, " \t\r\n")
		if len(trimmed) > 0 && trimmed[0] == '[' {
			return Result{Format: JSONArray}, nil
		}
		return Result{Format: NDJSON}, nil
	case ".csv", "":
		return Result{Format: CSV, Delimiter: sniffDelimiter(header)}, nil
	default:
		// Any other extension not named in §6's validation list is
		// rejected at the facade layer; the sniffer itself defaults
		// unrecognized-but-allowed extensions to CSV, matching the
		// teacher's "default to CSV for backwards compatibility" rule.
		return Result{Format: CSV, Delimiter: sniffDelimiter(header)}, nil
	}
}

// sniffDelimiter picks the delimiter with the highest count in the first
// logical line, breaking ties in the listed candidate order, defaulting to
// comma when every candidate count is zero.
func sniffDelimiter(header []byte) byte {
	scanner := bufio.NewScanner(bytes.NewReader(header))
	scanner.Buffer(make([]byte, PeekBytes), PeekBytes)
	var firstLine []byte
	if scanner.Scan() {
		firstLine = scanner.Bytes()
	} else {
		firstLine = header
	}

	best := delimiterCandidates[0]
	bestCount := -1
	for _, d := range delimiterCandidates {
		count := bytes.Count(firstLine, []byte{d})
		if count > bestCount {
			bestCount = count
			best = d
		}
	}
	if bestCount <= 0 {
		return ','
	}
	return best
}
