// Package stats implements the Statistics Accumulator (C9): while the
// streaming parser discovers records, this package tracks per-column value
// distributions so the secondary index can answer a stats(file_id) query
// without a second pass over the source file.
package stats

import (
	"sort"

	"github.com/samber/lo"

	"dataexplorer/internal/catalogdb"
)

// MaxTrackedColumns caps how many declared columns get a distribution
// tracked, per §3's Stats Entry.
const MaxTrackedColumns = 10

// MaxDistinctValues caps the streaming working set per column; values not
// yet seen once the cap is reached are dropped (a documented skew, per §3).
const MaxDistinctValues = 100

// TopValuesReturned is how many of the tracked values are kept in the final
// stats entry, ordered by descending count.
const TopValuesReturned = 30

// columnAccumulator tracks one column's value -> occurrence-count map,
// capped at MaxDistinctValues distinct keys.
type columnAccumulator struct {
	counts map[string]int64
}

// Accumulator tracks distributions for the first MaxTrackedColumns declared
// columns of a file being indexed.
type Accumulator struct {
	columns []string
	byCol   map[string]*columnAccumulator
}

// New creates an Accumulator tracking the first MaxTrackedColumns of
// declaredColumns.
func New(declaredColumns []string) *Accumulator {
	tracked := declaredColumns
	if len(tracked) > MaxTrackedColumns {
		tracked = tracked[:MaxTrackedColumns]
	}
	byCol := make(map[string]*columnAccumulator, len(tracked))
	for _, c := range tracked {
		byCol[c] = &columnAccumulator{counts: make(map[string]int64)}
	}
	return &Accumulator{columns: tracked, byCol: byCol}
}

// Columns returns the declared columns this accumulator tracks, in order.
func (a *Accumulator) Columns() []string { return a.columns }

// Observe records one record's full (pre-projection) field values, keyed by
// declared column name. Columns this accumulator doesn't track are ignored.
func (a *Accumulator) Observe(values map[string]string) {
	for col, acc := range a.byCol {
		v, ok := values[col]
		if !ok {
			continue
		}
		if _, seen := acc.counts[v]; !seen && len(acc.counts) >= MaxDistinctValues {
			continue
		}
		acc.counts[v]++
	}
}

// Finish produces the final per-column stats entries, ordered to match
// a.columns, each capped at TopValuesReturned values sorted by descending
// count (ties broken by value for determinism).
func (a *Accumulator) Finish() []catalogdb.ColumnStats {
	out := make([]catalogdb.ColumnStats, 0, len(a.columns))
	for _, col := range a.columns {
		acc := a.byCol[col]
		values := lo.MapToSlice(acc.counts, func(value string, count int64) catalogdb.ValueCount {
			return catalogdb.ValueCount{Value: value, Count: count}
		})
		sort.Slice(values, func(i, j int) bool {
			if values[i].Count != values[j].Count {
				return values[i].Count > values[j].Count
			}
			return values[i].Value < values[j].Value
		})
		if len(values) > TopValuesReturned {
			values = values[:TopValuesReturned]
		}
		out = append(out, catalogdb.ColumnStats{
			Column:         col,
			Type:           "string",
			ApproxDistinct: int64(len(acc.counts)),
			TopValues:      values,
		})
	}
	return out
}
