package parser

import (
	"context"
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// JSONArrayParser implements Parser for a single top-level JSON array of
// objects, per §4.3's JSON-array variant: a byte-level {depth, in_string,
// escape_next} state machine that finds each record's `{...}` span without
// ever JSON-decoding more than one record at a time.
type JSONArrayParser struct{}

func (JSONArrayParser) Parse(ctx context.Context, path string, _ byte, sink RecordSink, progress ProgressFunc) (Result, error) {
	var (
		depth         int
		inString      bool
		escapeNext    bool
		recording     bool
		recordBuf     []byte
		recordStart   uint64
		columns       []string
		searchable    []string
		declared      bool
		total         int64
		warningsCount int
	)
	th := newThrottle(progress, DefaultProgressInterval)

	handleClose := func() error {
		buf := append([]byte(nil), recordBuf...)
		decoded, err := oj.Parse(buf)
		if err != nil {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: invalid JSON object, record skipped", recordStart))
			return nil
		}
		obj, ok := decoded.(map[string]interface{})
		if !ok {
			warningsCount++
			sink.Warning(fmt.Sprintf("offset %d: not a JSON object, record skipped", recordStart))
			return nil
		}

		if !declared {
			keys, keyErr := orderedTopLevelKeys(buf)
			if keyErr == nil {
				if len(keys) > MaxDeclaredColumns {
					keys = keys[:MaxDeclaredColumns]
				}
				columns = keys
				searchable = firstN(columns, MaxSearchableColumns)
				sink.Header(columns, searchable)
				declared = true
			}
		}

		projected := projectObject(obj, searchable)
		if err := sink.Record(recordStart, projected, rawObjectValues(obj, columns)); err != nil {
			return err
		}
		total++
		return nil
	}

	processByte := func(b byte, pos uint64) error {
		if inString {
			if recording {
				recordBuf = append(recordBuf, b)
			}
			switch {
			case escapeNext:
				escapeNext = false
			case b == '\\':
				escapeNext = true
			case b == '"':
				inString = false
			}
			return nil
		}

		if b == '"' {
			inString = true
			if recording {
				recordBuf = append(recordBuf, b)
			}
			return nil
		}

		if depth == 0 {
			if b == '[' {
				depth = 1
			}
			return nil
		}

		switch b {
		case '{':
			if depth == 1 {
				recording = true
				recordStart = pos
				recordBuf = recordBuf[:0]
			}
			if recording {
				recordBuf = append(recordBuf, b)
			}
			depth++
		case '}':
			depth--
			if recording {
				recordBuf = append(recordBuf, b)
			}
			if depth == 1 && recording {
				recording = false
				return handleClose()
			}
		default:
			if recording {
				recordBuf = append(recordBuf, b)
			}
		}
		return nil
	}

	_, err := forEachChunk(ctx, path, ChunkSize, func(chunk []byte, chunkStart uint64) error {
		for i, b := range chunk {
			if err := processByte(b, chunkStart+uint64(i)); err != nil {
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

	if recording {
		warningsCount++
		sink.Warning(fmt.Sprintf("offset %d: truncated record at end of file, skipped", recordStart))
	}

	th.final(total)

	return Result{
		Columns:       columns,
		Searchable:    searchable,
		TotalRecords:  total,
		WarningsCount: warningsCount,
	}, nil
}
