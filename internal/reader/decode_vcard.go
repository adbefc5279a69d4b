package reader

import (
	"bytes"
	"strings"
)

// vCardColumns mirrors parser's canonical declared column list; kept local
// since the streaming parser's copy is unexported and single-record
// decoding has no other dependency on the parser package for this format.
var vCardColumns = []string{"FN", "N", "EMAIL", "TEL", "ORG", "ADR", "NOTE", "URL", "BDAY", "TITLE"}

var vCardMultiValued = map[string]bool{"EMAIL": true, "TEL": true}

// decodeVCard takes bytes up to and including the "END:VCARD" marker,
// unfolds continuation lines, and parses property lines, mirroring
// parser.VCardParser's per-line state machine exactly (same leading-
// whitespace-preserving continuation rule) so a freshly decoded record
// agrees with what indexing already stored.
func decodeVCard(buf []byte) (map[string]interface{}, error) {
	single := make(map[string]string)
	multi := make(map[string][]string)
	lastKey := ""
	lastIsMulti := false

	for _, raw := range splitLines(buf) {
		if len(raw) > 0 && (raw[0] == ' ' || raw[0] == '\t') {
			if lastKey != "" {
				if lastIsMulti {
					if n := len(multi[lastKey]); n > 0 {
						multi[lastKey][n-1] += string(raw)
					}
				} else {
					single[lastKey] += string(raw)
				}
			}
			continue
		}

		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" || strings.EqualFold(trimmed, "BEGIN:VCARD") {
			continue
		}
		if strings.EqualFold(trimmed, "END:VCARD") {
			break
		}

		colonIdx := strings.IndexByte(trimmed, ':')
		if colonIdx < 0 {
			lastKey = ""
			continue
		}
		namePart := trimmed[:colonIdx]
		value := trimmed[colonIdx+1:]
		if semi := strings.IndexByte(namePart, ';'); semi >= 0 {
			namePart = namePart[:semi]
		}
		key := strings.ToUpper(strings.TrimSpace(namePart))

		if key == "VERSION" || key == "BEGIN" || key == "END" {
			lastKey = ""
			continue
		}
		if vCardMultiValued[key] {
			multi[key] = append(multi[key], value)
			lastKey, lastIsMulti = key, true
			continue
		}
		if !isDeclaredVCardColumn(key) {
			lastKey = ""
			continue
		}
		if _, exists := single[key]; !exists {
			single[key] = value
		}
		lastKey, lastIsMulti = key, false
	}

	out := make(map[string]interface{}, len(vCardColumns))
	for _, col := range vCardColumns {
		if vs, ok := multi[col]; ok {
			out[col] = strings.Join(vs, ", ")
		} else if v, ok := single[col]; ok {
			out[col] = v
		}
	}
	return out, nil
}

func isDeclaredVCardColumn(key string) bool {
	for _, c := range vCardColumns {
		if c == key {
			return true
		}
	}
	return false
}

// splitLines splits buf on "\n", stripping a trailing "\r" from each line,
// including a final line with no trailing newline.
func splitLines(buf []byte) [][]byte {
	var lines [][]byte
	for len(buf) > 0 {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			lines = append(lines, bytes.TrimSuffix(buf, []byte("\r")))
			break
		}
		lines = append(lines, bytes.TrimSuffix(buf[:idx], []byte("\r")))
		buf = buf[idx+1:]
	}
	return lines
}
