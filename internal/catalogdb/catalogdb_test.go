package catalogdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if err := runMigrations(conn); err != nil {
		t.Fatalf("runMigrations: %v", err)
	}
	return &DB{sql: conn}
}

func seedFile(t *testing.T, db *DB, fileID string, names []string) {
	t.Helper()
	ctx := context.Background()
	ix, err := db.BeginIndexTx(ctx)
	if err != nil {
		t.Fatalf("BeginIndexTx: %v", err)
	}
	if err := ix.ResetFile(ctx, fileID); err != nil {
		t.Fatalf("ResetFile: %v", err)
	}
	for i, name := range names {
		row := SearchRow{RowIndex: int64(i), Position: uint64(i * 10)}
		row.Cols[0] = name
		if err := ix.InsertSearchRow(ctx, fileID, row); err != nil {
			t.Fatalf("InsertSearchRow: %v", err)
		}
	}
	entry := CatalogEntry{
		FileID:            fileID,
		Path:              "/data/" + fileID + ".csv",
		Name:              fileID + ".csv",
		Size:              1024,
		Type:              "csv",
		Format:            "csv",
		Delimiter:         ",",
		IndexedAt:         time.Unix(1700000000, 0),
		TotalRecords:      int64(len(names)),
		Columns:           []string{"name"},
		SearchableColumns: []string{"name"},
	}
	if err := ix.SetCatalogEntry(ctx, entry); err != nil {
		t.Fatalf("SetCatalogEntry: %v", err)
	}
	if err := ix.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	db := newTestDB(t)
	seedFile(t, db, "abc123", []string{"alice"})

	entry, err := db.GetEntry(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry.TotalRecords != 1 || entry.Columns[0] != "name" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestDeleteEntryRemovesEverything(t *testing.T) {
	db := newTestDB(t)
	seedFile(t, db, "abc123", []string{"alice"})

	if err := db.DeleteEntry(context.Background(), "abc123"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if _, err := db.GetEntry(context.Background(), "abc123"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	rows, err := db.queryRows(context.Background(), `SELECT row_index, position FROM search WHERE file_id = ?`, "abc123")
	if err != nil {
		t.Fatalf("queryRows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no leftover search rows, got %d", len(rows))
	}
}

func TestSearchOperators(t *testing.T) {
	db := newTestDB(t)
	seedFile(t, db, "f1", []string{"alice", "alicia", "bob"})
	searchable := []string{"name"}
	ctx := context.Background()

	cases := []struct {
		op   Operator
		val  string
		want int
	}{
		{OpEquals, "alice", 1},
		{OpStartsWith, "ali", 2},
		{OpEndsWith, "ce", 1},
		{OpNot, "ali", 1},
		{OpRegex, "^ali.*", 2},
	}
	for _, c := range cases {
		rows, err := db.SearchRows(ctx, "f1", searchable, []Field{{Column: "name", Operator: c.op, Value: c.val}}, PageRequest{Page: 1, Limit: 100})
		if err != nil {
			t.Fatalf("SearchRows(%s,%q): %v", c.op, c.val, err)
		}
		if len(rows) != c.want {
			t.Fatalf("SearchRows(%s,%q) = %d rows, want %d", c.op, c.val, len(rows), c.want)
		}
	}
}

func TestSearchWithEmptyValuesReturnsEmpty(t *testing.T) {
	db := newTestDB(t)
	seedFile(t, db, "f1", []string{"alice"})

	rows, err := db.SearchRows(context.Background(), "f1", []string{"name"}, []Field{{Column: "name", Operator: OpContains, Value: ""}}, PageRequest{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("SearchRows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected 0 rows for empty field value, got %d", len(rows))
	}
}

func TestPageOrdersByRowIndexAndRespectsLimit(t *testing.T) {
	db := newTestDB(t)
	seedFile(t, db, "f1", []string{"a", "b", "c", "d"})

	rows, err := db.PageRows(context.Background(), "f1", []string{"name"}, nil, PageRequest{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("PageRows: %v", err)
	}
	if len(rows) != 2 || rows[0].RowIndex != 2 || rows[1].RowIndex != 3 {
		t.Fatalf("unexpected page: %+v", rows)
	}
}

func TestReindexResetsSearchRows(t *testing.T) {
	db := newTestDB(t)
	seedFile(t, db, "f1", []string{"a", "b", "c"})
	seedFile(t, db, "f1", []string{"x"}) // re-index with fewer records

	entry, err := db.GetEntry(context.Background(), "f1")
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if entry.TotalRecords != 1 {
		t.Fatalf("expected total_records=1 after reindex, got %d", entry.TotalRecords)
	}
	n, err := db.Count(context.Background(), "f1", []string{"name"}, nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 search row after reindex, got %d", n)
	}
}
