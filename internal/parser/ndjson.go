package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// NDJSONParser implements Parser for newline-delimited JSON sources, per
// §4.3's NDJSON variant. Objects are decoded with ojg/oj rather than
// encoding/json, matching the teacher's fileloader.parseJSONData preference
// for a dedicated JSON library.
type NDJSONParser struct{}

func (NDJSONParser) Parse(ctx context.Context, path string, _ byte, sink RecordSink, progress ProgressFunc) (Result, error) {
	var (
		feeder        lineFeeder
		columns       []string
		searchable    []string
		declared      bool
		total         int64
		warningsCount int
	)
	th := newThrottle(progress, DefaultProgressInterval)

	processLine := func(ln line) error {
		trimmed := bytes.TrimSpace(ln.Bytes)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil
		}

		decoded, err := oj.Parse(trimmed)
		if err != nil {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: invalid JSON object, line skipped", ln.Offset))
			return nil
		}
		obj, ok := decoded.(map[string]interface{})
		if !ok {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: not a JSON object, line skipped", ln.Offset))
			return nil
		}

		if !declared {
			keys, keyErr := orderedTopLevelKeys(trimmed)
			if keyErr != nil {
				warningsCount++
				sink.Warning(fmt.Sprintf("offset %d: invalid JSON object, line skipped", ln.Offset))
				return nil
			}
			if len(keys) > MaxDeclaredColumns {
				keys = keys[:MaxDeclaredColumns]
			}
			columns = keys
			searchable = firstN(columns, MaxSearchableColumns)
			sink.Header(columns, searchable)
			declared = true
		}

		projected := projectObject(obj, searchable)
		if err := sink.Record(ln.Offset, projected, rawObjectValues(obj, columns)); err != nil {
			return err
		}
		total++
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

	if tail, ok := feeder.flush(); ok && len(bytes.TrimSpace(tail.Bytes)) > 0 {
		if err := processLine(tail); err != nil {
			return Result{}, err
		}
	}

	th.final(total)

	return Result{
		Columns:       columns,
		Searchable:    searchable,
		TotalRecords:  total,
		WarningsCount: warningsCount,
	}, nil
}

// projectObject extracts and projects the searchable column values from a
// decoded object, stringifying array values as their JSON serialization.
func projectObject(obj map[string]interface{}, searchable []string) []string {
	out := make([]string, len(searchable))
	for i, col := range searchable {
		v, ok := obj[col]
		if !ok {
			continue
		}
		out[i] = projectValue(stringifyJSONValue(v))
	}
	return out
}

// rawObjectValues extracts the unprojected values of the first
// MaxStatsColumns declared columns, for the Statistics Accumulator.
func rawObjectValues(obj map[string]interface{}, columns []string) []string {
	n := MaxStatsColumns
	if len(columns) < n {
		n = len(columns)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		v, ok := obj[columns[i]]
		if !ok {
			continue
		}
		out[i] = stringifyJSONValue(v)
	}
	return out
}
