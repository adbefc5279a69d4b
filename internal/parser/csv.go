package parser

import (
	"context"
	"fmt"
)

// CSVParser implements Parser for delimiter-separated sources, per §4.3's
// CSV variant.
type CSVParser struct{}

func (CSVParser) Parse(ctx context.Context, path string, delimiter byte, sink RecordSink, progress ProgressFunc) (Result, error) {
	if delimiter == 0 {
		delimiter = ','
	}

	var (
		feeder        lineFeeder
		columns       []string
		searchable    []string
		headerSeen    bool
		total         int64
		warningsCount int
	)
	th := newThrottle(progress, DefaultProgressInterval)

	processLine := func(ln line) error {
		if !headerSeen {
			fields, ok := ParseCSVLine(ln.Bytes, delimiter)
			if !ok || len(fields) == 0 {
				return fmt.Errorf("csv: malformed header line")
			}
			columns = fields
			searchable = firstN(columns, MaxSearchableColumns)
			sink.Header(columns, searchable)
			headerSeen = true
			return nil
		}

		if len(ln.Bytes) == 0 {
			return nil
		}

		fields, ok := ParseCSVLine(ln.Bytes, delimiter)
		if !ok {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: unbalanced quote, line skipped", ln.Offset))
			return nil
		}
		if len(fields) != len(columns) {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: expected %d fields, got %d, line skipped", ln.Offset, len(columns), len(fields)))
			return nil
		}

		projected := projectSearchable(fields, len(searchable))
		if err := sink.Record(ln.Offset, projected, statsValues(fields)); err != nil {
			return err
		}
		total++
		return nil
	}

	fileSize, err := forEachChunk(ctx, path, ChunkSize, func(chunk []byte, chunkStart uint64) error {
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

	if tail, ok := feeder.flush(); ok && len(tail.Bytes) > 0 {
		if err := processLine(tail); err != nil {
			return Result{}, err
		}
	}

	_ = fileSize
	th.final(total)

	return Result{
		Columns:       columns,
		Searchable:    searchable,
		TotalRecords:  total,
		WarningsCount: warningsCount,
	}, nil
}
