package reader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/indexwriter"
	"dataexplorer/internal/sniff"
)

func setup(t *testing.T, content string) (*Reader, string, *catalogdb.DB, string) {
	t.Helper()
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "indexes")
	srcPath := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(srcPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	db, err := catalogdb.Open(filepath.Join(dir, "search.db"))
	if err != nil {
		t.Fatalf("catalogdb.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = indexwriter.Write(context.Background(), db, indexDir, indexwriter.Job{
		FileID:  "fid1",
		Path:    srcPath,
		Name:    "data.csv",
		Size:    int64(len(content)),
		Sniffed: sniff.Result{Format: sniff.CSV, Delimiter: ','},
	}, nil, nil)
	if err != nil {
		t.Fatalf("indexwriter.Write: %v", err)
	}

	r := New(db, NewReadiness(), Sizes{MetadataFiles: 20, PositionFiles: 10, Records: 1000})
	return r, indexDir, db, srcPath
}

func TestGetRecordDecodesCSVRow(t *testing.T) {
	r, indexDir, _, _ := setup(t, "name,email\n\"Doe, John\",\"a@x\"\nJane,b@y")

	rec, err := r.GetRecord(context.Background(), indexDir, "fid1", 0)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec["name"] != "Doe, John" || rec["email"] != "a@x" {
		t.Fatalf("GetRecord(0) = %+v", rec)
	}
	if rec["_index"] != int64(0) {
		t.Fatalf("_index = %v, want 0", rec["_index"])
	}

	rec1, err := r.GetRecord(context.Background(), indexDir, "fid1", 1)
	if err != nil {
		t.Fatalf("GetRecord(1): %v", err)
	}
	if rec1["name"] != "Jane" || rec1["email"] != "b@y" {
		t.Fatalf("GetRecord(1) = %+v", rec1)
	}
}

func TestGetRecordOutOfRangeIsValidationError(t *testing.T) {
	r, indexDir, _, _ := setup(t, "name,email\nalice,a@x\n")
	_, err := r.GetRecord(context.Background(), indexDir, "fid1", 5)
	if err == nil {
		t.Fatal("expected an error for out-of-range row index")
	}
}

func TestPageReturnsAllRowsOrderedByRowIndex(t *testing.T) {
	r, indexDir, _, _ := setup(t, "name,email\nalice,a@x\nbob,b@y\n")
	result, err := r.Page(context.Background(), indexDir, "fid1", nil, catalogdb.PageRequest{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if result.Total != 2 || len(result.Rows) != 2 {
		t.Fatalf("Page() = %+v, want 2 rows", result)
	}
	if result.Rows[0]["name"] != "alice" || result.Rows[1]["name"] != "bob" {
		t.Fatalf("Page() rows out of order: %+v", result.Rows)
	}
}

func TestSearchFiltersByOperator(t *testing.T) {
	r, indexDir, _, _ := setup(t, "name,email\nalice,a@x\nbob,b@y\n")
	result, err := r.Search(context.Background(), indexDir, "fid1",
		[]catalogdb.Field{{Column: "name", Operator: catalogdb.OpEquals, Value: "bob"}},
		catalogdb.PageRequest{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Total != 1 || len(result.Rows) != 1 || result.Rows[0]["name"] != "bob" {
		t.Fatalf("Search() = %+v, want one row for bob", result)
	}
}

func TestInvalidateClearsCachesAndHandle(t *testing.T) {
	r, indexDir, _, _ := setup(t, "name,email\nalice,a@x\n")
	if _, err := r.GetRecord(context.Background(), indexDir, "fid1", 0); err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	r.Invalidate("fid1")
	if r.records.Len() != 0 {
		t.Fatalf("records cache not cleared after Invalidate")
	}
	if _, ok := r.metadata.Get("fid1"); ok {
		t.Fatalf("metadata cache not cleared after Invalidate")
	}
	if _, ok := r.handles["fid1"]; ok {
		t.Fatalf("file handle not released after Invalidate")
	}
}
