package catalogdb

import (
	"context"
	"fmt"
	"strings"
)

// Operator is one of the fixed operator set exposed by search, per §4.4.
type Operator string

const (
	OpContains   Operator = "contains"
	OpEquals     Operator = "equals"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpNot        Operator = "not"
	OpRegex      Operator = "regex"
)

// Field is one search condition: a searchable column name, the operator to
// apply, and the (already-lowercased) value to compare against.
type Field struct {
	Column   string
	Operator Operator
	Value    string
}

// PageRequest identifies a single page of results, per §4.4's page/search shape.
type PageRequest struct {
	Page  int
	Limit int
}

// Row is one matched (row_index, position) pair.
type Row struct {
	RowIndex int64
	Position uint64
}

// colIndex returns the col0..col5 position of column within searchable, or
// -1 if column is absent from the first six searchable columns (§4.4:
// "Columns absent from searchable columns or beyond index 5 are ignored").
func colIndex(searchable []string, column string) int {
	for i, c := range searchable {
		if i >= 6 {
			break
		}
		if c == column {
			return i
		}
	}
	return -1
}

// Count returns the number of search rows for fileID matching every filter
// (substring, ANDed), per §4.4's count operation.
func (d *DB) Count(ctx context.Context, fileID string, searchable []string, filters map[string]string) (int64, error) {
	where, args := buildFilterWhere(fileID, searchable, filters)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM search WHERE %s`, where)
	var n int64
	if err := d.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PageRows returns the (row_index, position) pairs for page req.Page
// (1-based) ordered by row_index, per §4.4's page operation.
func (d *DB) PageRows(ctx context.Context, fileID string, searchable []string, filters map[string]string, req PageRequest) ([]Row, error) {
	where, args := buildFilterWhere(fileID, searchable, filters)
	limit, offset := pageLimitOffset(req)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT row_index, position FROM search WHERE %s ORDER BY row_index LIMIT ? OFFSET ?`, where)
	return d.queryRows(ctx, query, args...)
}

// SearchRows returns the (row_index, position) pairs matching fields
// (ANDed, each per its own operator), per §4.4's search operation.
func (d *DB) SearchRows(ctx context.Context, fileID string, searchable []string, fields []Field, req PageRequest) ([]Row, error) {
	where, args, err := buildSearchWhere(fileID, searchable, fields)
	if err != nil {
		return nil, err
	}
	if where == "" {
		// Every field value was empty/too short: §8 boundary behavior —
		// "search with every field value shorter than 1 character returns
		// empty with total=0, not an error."
		return nil, nil
	}
	limit, offset := pageLimitOffset(req)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT row_index, position FROM search WHERE %s ORDER BY row_index LIMIT ? OFFSET ?`, where)
	return d.queryRows(ctx, query, args...)
}

// SearchCount mirrors SearchRows but returns only the matching row count,
// used to populate a SearchResult's total.
func (d *DB) SearchCount(ctx context.Context, fileID string, searchable []string, fields []Field) (int64, error) {
	where, args, err := buildSearchWhere(fileID, searchable, fields)
	if err != nil {
		return 0, err
	}
	if where == "" {
		return 0, nil
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM search WHERE %s`, where)
	var n int64
	if err := d.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (d *DB) queryRows(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.RowIndex, &r.Position); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func pageLimitOffset(req PageRequest) (limit, offset int) {
	limit = req.Limit
	if limit <= 0 {
		limit = 1
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// buildFilterWhere builds the page/count WHERE clause: file_id plus one
// "col_k LIKE %v%" per filter, ANDed.
func buildFilterWhere(fileID string, searchable []string, filters map[string]string) (string, []interface{}) {
	clauses := []string{"file_id = ?"}
	args := []interface{}{fileID}
	for col, substr := range filters {
		idx := colIndex(searchable, col)
		if idx < 0 {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("col%d LIKE ?", idx))
		args = append(args, "%"+strings.ToLower(substr)+"%")
	}
	return strings.Join(clauses, " AND "), args
}

// buildSearchWhere builds the search WHERE clause per the operator table in
// §4.4. Returns an empty where string if no field survives validation
// (ignored column, or value shorter than 1 character), matching §8's "every
// field value shorter than 1 character" boundary rule.
func buildSearchWhere(fileID string, searchable []string, fields []Field) (string, []interface{}, error) {
	clauses := []string{"file_id = ?"}
	args := []interface{}{fileID}
	anyField := false

	for _, f := range fields {
		idx := colIndex(searchable, f.Column)
		if idx < 0 {
			continue
		}
		value := strings.ToLower(f.Value)
		if len(value) < 1 {
			continue
		}
		anyField = true
		col := fmt.Sprintf("col%d", idx)

		switch f.Operator {
		case OpContains:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, "%"+value+"%")
		case OpEquals:
			clauses = append(clauses, col+" = ?")
			args = append(args, value)
		case OpStartsWith:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, value+"%")
		case OpEndsWith:
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, "%"+value)
		case OpNot:
			clauses = append(clauses, "("+col+" IS NULL OR "+col+" NOT LIKE ?)")
			args = append(args, "%"+value+"%")
		case OpRegex:
			pattern := regexToLike(value)
			clauses = append(clauses, col+" LIKE ?")
			args = append(args, pattern)
		default:
			return "", nil, fmt.Errorf("catalogdb: unknown search operator %q", f.Operator)
		}
	}

	if !anyField {
		return "", nil, nil
	}
	return strings.Join(clauses, " AND "), args, nil
}

// regexToLike implements §4.4's regex-lite-to-LIKE translation: lowered
// value, ".*" -> "%", "." -> "_", leading "^"/trailing "$" stripped; if no
// wildcard remains after that, wrap the whole thing in "%...%".
func regexToLike(value string) string {
	v := strings.TrimPrefix(value, "^")
	v = strings.TrimSuffix(v, "$")
	v = strings.ReplaceAll(v, ".*", "%")
	v = strings.ReplaceAll(v, ".", "_")
	if !strings.ContainsAny(v, "%_") {
		v = "%" + v + "%"
	}
	return v
}
