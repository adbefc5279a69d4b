package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// recordingSink collects everything a Parser emits, for assertions.
type recordingSink struct {
	columns     []string
	searchable  []string
	offsets     []uint64
	projected   [][]string
	statsValues [][]string
	warnings    []string
}

func (s *recordingSink) Header(columns, searchable []string) {
	s.columns = columns
	s.searchable = searchable
}

func (s *recordingSink) Record(offset uint64, projected []string, statsValues []string) error {
	s.offsets = append(s.offsets, offset)
	s.projected = append(s.projected, projected)
	s.statsValues = append(s.statsValues, statsValues)
	return nil
}

func (s *recordingSink) Warning(msg string) {
	s.warnings = append(s.warnings, msg)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writeTemp: %v", err)
	}
	return path
}

func TestCSVParserQuotedFieldWithComma(t *testing.T) {
	// "name,email\n" is 11 bytes (indices 0-10, \n at 10), so the first data
	// row starts at 11; the row after it starts right after its own \n, at 29.
	content := "name,email\n\"Doe, John\",\"a@x\"\nJane,b@y"
	path := writeTemp(t, "people.csv", content)
	sink := &recordingSink{}
	result, err := CSVParser{}.Parse(context.Background(), path, ',', sink, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.TotalRecords != 2 {
		t.Fatalf("expected 2 records, got %d", result.TotalRecords)
	}
	wantColumns := []string{"name", "email"}
	if !equalStrings(sink.columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", sink.columns, wantColumns)
	}
	if sink.offsets[0] != 11 {
		t.Fatalf("first record offset = %d, want 11", sink.offsets[0])
	}
	if sink.offsets[1] != 29 {
		t.Fatalf("second record offset = %d, want 29", sink.offsets[1])
	}
	if sink.projected[0][0] != "doe, john" {
		t.Fatalf("first record's name column = %q, want %q", sink.projected[0][0], "doe, john")
	}
}

func TestNDJSONParserExcludesObjectValuedColumns(t *testing.T) {
	path := writeTemp(t, "events.ndjson", "{\"u\":\"al\",\"n\":1,\"meta\":{\"x\":1}}\n{\"u\":\"bo\",\"n\":2}\n")
	sink := &recordingSink{}
	result, err := NDJSONParser{}.Parse(context.Background(), path, 0, sink, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.TotalRecords != 2 {
		t.Fatalf("expected 2 records, got %d", result.TotalRecords)
	}
	wantColumns := []string{"u", "n"}
	if !equalStrings(sink.columns, wantColumns) {
		t.Fatalf("columns = %v, want %v (order must follow source key order, not alphabetical)", sink.columns, wantColumns)
	}
	if sink.projected[1][0] != "bo" {
		t.Fatalf("second record's u column = %q, want %q", sink.projected[1][0], "bo")
	}
	if sink.statsValues[1][1] != "2" {
		t.Fatalf("second record's raw n value = %q, want %q", sink.statsValues[1][1], "2")
	}
}

func TestJSONArrayParserHandlesEscapedBraces(t *testing.T) {
	path := writeTemp(t, "events.json", `[ {"s":"a}b","n":1}, {"s":"{","n":2} ]`)
	sink := &recordingSink{}
	result, err := JSONArrayParser{}.Parse(context.Background(), path, 0, sink, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.TotalRecords != 2 {
		t.Fatalf("expected 2 records, got %d", result.TotalRecords)
	}
	if sink.projected[1][0] != "{" {
		t.Fatalf("second record's s column = %q, want %q", sink.projected[1][0], "{")
	}
}

func TestVCardParserUnfoldsContinuationAndAccumulatesEmail(t *testing.T) {
	path := writeTemp(t, "contacts.vcf", "BEGIN:VCARD\nFN:Al\n Pha\nEMAIL:a@x\nEMAIL:b@y\nEND:VCARD\n")
	sink := &recordingSink{}
	result, err := VCardParser{}.Parse(context.Background(), path, 0, sink, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.TotalRecords != 1 {
		t.Fatalf("expected 1 record, got %d", result.TotalRecords)
	}
	if got := sink.projected[0][0]; got != "al pha" {
		t.Fatalf("FN column = %q, want %q", got, "al pha")
	}
	if got := sink.projected[0][2]; got != "a@x, b@y" {
		t.Fatalf("EMAIL column = %q, want %q", got, "a@x, b@y")
	}
}

func TestCSVParserSkipsMalformedRows(t *testing.T) {
	path := writeTemp(t, "bad.csv", "a,b,c\n1,2,3\n4,5\n6,7,8\n")
	sink := &recordingSink{}
	result, err := CSVParser{}.Parse(context.Background(), path, ',', sink, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.TotalRecords != 2 {
		t.Fatalf("expected 2 valid records, got %d", result.TotalRecords)
	}
	if result.WarningsCount != 1 {
		t.Fatalf("expected 1 warning, got %d", result.WarningsCount)
	}
}

func TestParseCancellation(t *testing.T) {
	path := writeTemp(t, "big.csv", "a,b\n1,2\n3,4\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CSVParser{}.Parse(ctx, path, ',', &recordingSink{}, nil)
	if _, ok := err.(ErrCancelled); !ok {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
