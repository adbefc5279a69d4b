package parser

import "strings"

// ParseCSVLine splits one physical CSV line into fields using the
// RFC-4180-style rules of §4.3: double quotes open/close a quoted field,
// "" inside a quoted field yields a literal quote, the delimiter outside
// quotes ends a field, and whitespace outside quotes at field boundaries is
// trimmed. ok is false when the line has unbalanced quotes.
//
// Exported so the record reader (C7) can apply the identical scanner when
// reconstructing a single record from a seek, per §4.5 step 4.
func ParseCSVLine(lineBytes []byte, delim byte) (fields []string, ok bool) {
	n := len(lineBytes)
	i := 0

	for {
		var buf []byte
		quoted := false

		// Skip leading whitespace before a field (outside quotes).
		for i < n && isCSVSpace(lineBytes[i]) && lineBytes[i] != delim {
			i++
		}

		if i < n && lineBytes[i] == '"' {
			quoted = true
			i++
			closed := false
			for i < n {
				if lineBytes[i] == '"' {
					if i+1 < n && lineBytes[i+1] == '"' {
						buf = append(buf, '"')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				buf = append(buf, lineBytes[i])
				i++
			}
			if !closed {
				return nil, false
			}
			// Consume any trailing whitespace up to the delimiter.
			for i < n && isCSVSpace(lineBytes[i]) && lineBytes[i] != delim {
				i++
			}
		} else {
			for i < n && lineBytes[i] != delim {
				buf = append(buf, lineBytes[i])
				i++
			}
		}

		field := string(buf)
		if !quoted {
			field = strings.TrimSpace(field)
		}
		fields = append(fields, field)

		if i < n && lineBytes[i] == delim {
			i++
			continue
		}
		break
	}

	return fields, true
}

func isCSVSpace(b byte) bool { return b == ' ' || b == '\t' }
