package parser

import "strings"

// projectValue normalizes a raw field value into the form stored in the
// secondary index's col0..col5: lowercased, with the legacy "|" separator
// stripped, and trimmed. Per the Open Question in §9, the relational index
// no longer needs the "|" stripping, but it is preserved because removing
// it would change result sets for any column value that happens to contain
// a literal pipe, and the spec keeps it for that reason.
func projectValue(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, "|", "")
	return v
}

// projectSearchable builds the (at most MaxSearchableColumns) projected
// values for a record, given its full field list and the number of
// searchable columns declared for the file.
func projectSearchable(fields []string, searchableCount int) []string {
	if searchableCount > MaxSearchableColumns {
		searchableCount = MaxSearchableColumns
	}
	out := make([]string, searchableCount)
	for i := 0; i < searchableCount; i++ {
		if i < len(fields) {
			out[i] = projectValue(fields[i])
		}
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) < n {
		n = len(items)
	}
	return append([]string(nil), items[:n]...)
}

// statsValues builds the raw (unprojected) values of the first
// MaxStatsColumns fields, for the Statistics Accumulator. Unlike the
// searchable projection these are neither lowercased nor pipe-stripped.
func statsValues(fields []string) []string {
	n := MaxStatsColumns
	if len(fields) < n {
		n = len(fields)
	}
	return append([]string(nil), fields[:n]...)
}
