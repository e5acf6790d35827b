// Package chunkstat computes per-key min, max and mean over large `key;value`
// files by aggregating line-range chunks in parallel and merging the partials.
package chunkstat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ChunkDescriptor identifies a contiguous range of input lines processed as one unit of work.
type ChunkDescriptor struct {
	Index     int    `json:"index"`
	StartLine uint64 `json:"start_line"`
	Length    uint64 `json:"length"`
}

// End returns the exclusive end line of the chunk
func (d ChunkDescriptor) End() uint64 {
	return d.StartLine + d.Length
}

func (d ChunkDescriptor) String() string {
	return fmt.Sprintf("chunk %d [%d,%d)", d.Index, d.StartLine, d.End())
}

// RawRecord is a single parsed line.
type RawRecord struct {
	Key   string
	Value float64
}

// Stat holds the running statistics for one key.
// The sum is kept as an exact decimal so that folding is associative and
// the result does not depend on how the input was chunked.
type Stat struct {
	Key   string          `json:"key"`
	Min   float64         `json:"min"`
	Max   float64         `json:"max"`
	Sum   decimal.Decimal `json:"sum"`
	Count uint64          `json:"count"`
}

// NewStat seeds a Stat from a single observation
func NewStat(key string, v float64) Stat {
	return Stat{
		Key:   key,
		Min:   v,
		Max:   v,
		Sum:   decimal.NewFromFloat(v),
		Count: 1,
	}
}

// Add folds one more observation into s and returns the result
func (s Stat) Add(v float64) Stat {
	if s.Count == 0 {
		return NewStat(s.Key, v)
	}
	s.Min = min(s.Min, v)
	s.Max = max(s.Max, v)
	s.Sum = s.Sum.Add(decimal.NewFromFloat(v))
	s.Count++
	return s
}

// meanPrecision is the number of decimal places kept when dividing the sum
const meanPrecision = 20

// Mean returns Sum/Count, or 0 for an empty Stat. The division is done on the
// exact sum so the only rounding is the final conversion to float64.
func (s Stat) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum.DivRound(decimal.NewFromInt(int64(s.Count)), meanPrecision).InexactFloat64()
}

// Row converts the Stat to its presentation form
func (s Stat) Row() Row {
	return Row{
		Key:   s.Key,
		Min:   s.Min,
		Max:   s.Max,
		Mean:  s.Mean(),
		Count: s.Count,
	}
}

// PartialSet holds one Stat per distinct key seen in a single chunk.
type PartialSet map[string]Stat

// Row is one line of the final result table.
type Row struct {
	Key   string  `json:"key"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count uint64  `json:"count"`
}

// Table is the final result, sorted ascending by key.
type Table []Row

// Find looks up a key with a binary search
func (t Table) Find(key string) (Row, bool) {
	i, found := slices.BinarySearchFunc(t, key, func(r Row, k string) int {
		return strings.Compare(r.Key, k)
	})
	if !found {
		return Row{}, false
	}
	return t[i], true
}

// Keys returns the keys of the table in order
func (t Table) Keys() []string {
	keys := make([]string, len(t))
	for i, r := range t {
		keys[i] = r.Key
	}
	return keys
}

func tableOf(stats map[string]Stat) Table {
	t := make(Table, 0, len(stats))
	for _, s := range stats {
		t = append(t, s.Row())
	}
	sortTable(t)
	return t
}

func sortTable(t Table) {
	slices.SortFunc(t, func(a, b Row) int {
		return strings.Compare(a.Key, b.Key)
	})
}
