// Package engine implements the Request API of §6: the transport-agnostic
// facade a host process calls into, wiring together the Index Coordinator
// (C8), Record Reader (C7), Recent List, and catalog database behind the
// validated request/response shapes the table in §6 describes.
//
// Grounded on the teacher's App struct (application/app/app.go): one
// struct holding every long-lived component, exposing one exported method
// per bound frontend call, each starting with input validation before
// touching any component.
package engine

import (
	"time"

	"dataexplorer/internal/catalogdb"
)

// CatalogView is the catalog-shaped record returned by open_file_info,
// per §6 (list_recent returns RecentEntry, and start_index reports through
// coordinator.Status). Indexed reports
// whether a catalog entry already exists for the file-id; Warnings carries
// the supplemental detail from SPEC_FULL's warnings-surfaced-on-completion
// addition, capped at 20 entries.
type CatalogView struct {
	FileID            string   `json:"fileId"`
	Path              string   `json:"path"`
	Name              string   `json:"name"`
	Size              int64    `json:"size"`
	Type              string   `json:"type"`
	Format            string   `json:"format"`
	IndexedAt         string   `json:"indexedAt"`
	TotalRecords      int64    `json:"totalRecords"`
	Columns           []string `json:"columns"`
	SearchableColumns []string `json:"searchableColumns"`
	Indexed           bool     `json:"indexed"`
	WarningsCount     int      `json:"warningsCount,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

func catalogViewFromEntry(entry catalogdb.CatalogEntry, indexed bool) CatalogView {
	return CatalogView{
		FileID:            entry.FileID,
		Path:              entry.Path,
		Name:              entry.Name,
		Size:              entry.Size,
		Type:              entry.Type,
		Format:            entry.Format,
		IndexedAt:         entry.IndexedAt.Format(time.RFC3339),
		TotalRecords:      entry.TotalRecords,
		Columns:           entry.Columns,
		SearchableColumns: entry.SearchableColumns,
		Indexed:           indexed,
	}
}

// RecentEntry is one row of list_recent's response, per §3's Recent List.
type RecentEntry struct {
	FileID       string   `json:"fileId"`
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Size         int64    `json:"size"`
	Type         string   `json:"type"`
	Format       string   `json:"format"`
	IndexedAt    string   `json:"indexedAt"`
	TotalRecords int64    `json:"totalRecords"`
	Columns      []string `json:"columns"`
}

// PageResponse is page(...)'s response shape, per §6.
type PageResponse struct {
	Rows  []map[string]interface{} `json:"rows"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

// SearchResponse is search(...)'s response shape: PageResponse's shape
// plus ElapsedMs, per §6: "same shape + counts + elapsed-ms".
type SearchResponse struct {
	Rows      []map[string]interface{} `json:"rows"`
	Total     int64                    `json:"total"`
	Page      int                      `json:"page"`
	Limit     int                      `json:"limit"`
	ElapsedMs int64                    `json:"elapsedMs"`
}

// SearchFieldRequest is one field of a search(...) call's fields argument.
type SearchFieldRequest struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// ExportRequest carries export(...)'s arguments, per §6 and SPEC_FULL §C.2.
type ExportRequest struct {
	FileID      string
	Format      string // csv | json
	Destination string
	Filters     map[string]string
	Fields      []SearchFieldRequest
	Limit       int
}
