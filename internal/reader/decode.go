package reader

import (
	"bytes"
	"fmt"

	"github.com/ohler55/ojg/oj"

	"dataexplorer/internal/catalogdb"
	"dataexplorer/internal/parser"
	"dataexplorer/internal/sniff"
	"dataexplorer/internal/valuekind"
)

// decodeRecord dispatches buf (the scratch read starting at the record's
// offset) to the format-specific decoder named by entry.Format, per §4.5
// step 4.
func decodeRecord(entry catalogdb.CatalogEntry, buf []byte) (map[string]interface{}, error) {
	switch sniff.Format(entry.Format) {
	case sniff.CSV:
		return decodeCSV(entry, buf)
	case sniff.NDJSON:
		return decodeNDJSON(entry, buf)
	case sniff.JSONArray:
		return decodeJSONArray(entry, buf)
	case sniff.VCard:
		return decodeVCard(buf)
	default:
		return nil, fmt.Errorf("reader: unknown format %q", entry.Format)
	}
}

// decodeCSV takes bytes up to the first "\n" (stripping a trailing "\r"),
// applies the same RFC-4180-style scanner C3 uses, and zips fields with
// entry.Columns.
func decodeCSV(entry catalogdb.CatalogEntry, buf []byte) (map[string]interface{}, error) {
	lineBytes := firstLine(buf)
	delim := byte(',')
	if entry.Delimiter != "" {
		delim = entry.Delimiter[0]
	}
	fields, ok := parser.ParseCSVLine(lineBytes, delim)
	if !ok {
		return nil, fmt.Errorf("reader: malformed csv record")
	}
	out := make(map[string]interface{}, len(entry.Columns))
	for i, col := range entry.Columns {
		if i < len(fields) {
			out[col] = fields[i]
		}
	}
	return out, nil
}

// decodeNDJSON takes bytes up to the first "\n", JSON-decodes the object,
// and keeps primitive/null values verbatim, serializing arrays to JSON
// text and dropping object-valued fields, per §4.5 step 4.
func decodeNDJSON(entry catalogdb.CatalogEntry, buf []byte) (map[string]interface{}, error) {
	lineBytes := bytes.TrimSpace(firstLine(buf))
	decoded, err := oj.Parse(lineBytes)
	if err != nil {
		return nil, fmt.Errorf("reader: decode ndjson record: %w", err)
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("reader: ndjson record is not an object")
	}
	return filterRecordValues(obj), nil
}

// decodeJSONArray runs the same {depth, in_string, escape_next} state
// machine C3 uses to find the matching "}" for the object starting at
// buf[0], JSON-decodes that span, and applies the NDJSON value-filtering
// rule, per §4.5 step 4.
func decodeJSONArray(entry catalogdb.CatalogEntry, buf []byte) (map[string]interface{}, error) {
	end, ok := findObjectEnd(buf)
	if !ok {
		return nil, fmt.Errorf("reader: could not find closing brace for json-array record")
	}
	decoded, err := oj.Parse(buf[:end])
	if err != nil {
		return nil, fmt.Errorf("reader: decode json-array record: %w", err)
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("reader: json-array record is not an object")
	}
	return filterRecordValues(obj), nil
}

// findObjectEnd returns the index just past the "}" matching buf[0]'s
// assumed leading "{", tracking string/escape state so braces or quotes
// inside string values never affect the depth count.
func findObjectEnd(buf []byte) (int, bool) {
	depth := 0
	inString := false
	escapeNext := false

	for i, b := range buf {
		if inString {
			switch {
			case escapeNext:
				escapeNext = false
			case b == '\\':
				escapeNext = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// filterRecordValues applies §4.5 step 4's NDJSON/JSON-array rule: keep
// primitive and null values verbatim, serialize arrays as JSON text, drop
// object-valued fields entirely.
func filterRecordValues(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		switch t := v.(type) {
		case map[string]interface{}:
			continue // object-valued: dropped
		case []interface{}:
			out[k] = valuekind.FromAny(t).String()
		default:
			out[k] = v
		}
	}
	return out
}

// firstLine returns buf up to (not including) the first "\n", stripping a
// trailing "\r", or all of buf if no "\n" is present.
func firstLine(buf []byte) []byte {
	idx := bytes.IndexByte(buf, '\n')
	line := buf
	if idx >= 0 {
		line = buf[:idx]
	}
	return bytes.TrimSuffix(line, []byte("\r"))
}
