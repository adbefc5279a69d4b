package parser

import (
	"context"
	"fmt"
	"strings"
)

// vCardColumns is the canonical declared column list for the vCard variant,
// per §4.3: fixed regardless of which properties a given source actually
// populates.
var vCardColumns = []string{"FN", "N", "EMAIL", "TEL", "ORG", "ADR", "NOTE", "URL", "BDAY", "TITLE"}

// vCardMultiValued names the properties that accumulate multiple
// occurrences as a ", "-joined list instead of first-occurrence-wins.
var vCardMultiValued = map[string]bool{"EMAIL": true, "TEL": true}

// VCardParser implements Parser for the vCard variant, per §4.3: a record
// spans a `BEGIN:VCARD`...`END:VCARD` line pair; continuation lines (a
// leading space or tab) are appended to the previous property's value.
type VCardParser struct{}

func (VCardParser) Parse(ctx context.Context, path string, _ byte, sink RecordSink, progress ProgressFunc) (Result, error) {
	var (
		feeder        lineFeeder
		searchable    = firstN(vCardColumns, MaxSearchableColumns)
		total         int64
		warningsCount int

		inRecord    bool
		recordStart uint64
		single      map[string]string
		multi       map[string][]string
		lastKey     string
		lastIsMulti bool
	)
	sink.Header(vCardColumns, searchable)
	th := newThrottle(progress, DefaultProgressInterval)

	resetRecord := func() {
		inRecord = false
		single = nil
		multi = nil
		lastKey = ""
		lastIsMulti = false
	}

	finalize := func(offset uint64) error {
		fields := make([]string, len(vCardColumns))
		for i, col := range vCardColumns {
			if vs, ok := multi[col]; ok {
				fields[i] = strings.Join(vs, ", ")
			} else if v, ok := single[col]; ok {
				fields[i] = v
			}
		}
		projected := make([]string, len(searchable))
		for i := range searchable {
			projected[i] = projectValue(fields[i])
		}
		if err := sink.Record(offset, projected, statsValues(fields)); err != nil {
			return err
		}
		total++
		return nil
	}

	processLine := func(ln line) error {
		raw := ln.Bytes
		if len(raw) > 0 && (raw[0] == ' ' || raw[0] == '\t') {
			if inRecord && lastKey != "" {
				if lastIsMulti {
					if n := len(multi[lastKey]); n > 0 {
						multi[lastKey][n-1] += string(raw)
					}
				} else {
					single[lastKey] += string(raw)
				}
			}
			return nil
		}

		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" {
			return nil
		}

		if !inRecord {
			if strings.EqualFold(trimmed, "BEGIN:VCARD") {
				inRecord = true
				recordStart = ln.Offset
				single = make(map[string]string)
				multi = make(map[string][]string)
				lastKey = ""
				lastIsMulti = false
			}
			return nil
		}

		if strings.EqualFold(trimmed, "END:VCARD") {
			err := finalize(recordStart)
			resetRecord()
			return err
		}

		colonIdx := strings.IndexByte(trimmed, ':')
		if colonIdx < 0 {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: malformed property line, skipped", ln.Offset))
			lastKey = ""
			return nil
		}
		namePart := trimmed[:colonIdx]
		value := trimmed[colonIdx+1:]
		if semi := strings.IndexByte(namePart, ';'); semi >= 0 {
			namePart = namePart[:semi]
		}
		key := strings.ToUpper(strings.TrimSpace(namePart))

		if key == "VERSION" || key == "BEGIN" || key == "END" {
			lastKey = ""
			return nil
		}

		if vCardMultiValued[key] {
			multi[key] = append(multi[key], value)
			lastKey, lastIsMulti = key, true
			return nil
		}

		if !isDeclaredVCardColumn(key) {
			lastKey = ""
			return nil
		}
		if _, exists := single[key]; !exists {
			single[key] = value
		}
		lastKey, lastIsMulti = key, false
		return nil
	}

	_, err := forEachChunk(ctx, path, ChunkSize, func(chunk []byte, chunkStart uint64) error {
		for _, ln := range feeder.feed(chunk, chunkStart) {
			if err := processLine(ln); err != nil {
				return err
			}
		}
		return nil
	}, func(consumed, size uint64) {
		th.maybe(consumed, size, total)
	})
	if err != nil {
		return Result{}, err
	}

	if tail, ok := feeder.flush(); ok && len(strings.TrimSpace(string(tail.Bytes))) > 0 {
		if err := processLine(tail); err != nil {
			return Result{}, err
		}
	}

	if inRecord {
		warningsCount++
		sink.Warning(fmt.Sprintf("offset %d: unterminated vcard record at end of file, skipped", recordStart))
	}

	th.final(total)

	return Result{
		Columns:       vCardColumns,
		Searchable:    searchable,
		TotalRecords:  total,
		WarningsCount: warningsCount,
	}, nil
}

func isDeclaredVCardColumn(key string) bool {
	for _, c := range vCardColumns {
		if c == key {
			return true
		}
	}
	return false
}
