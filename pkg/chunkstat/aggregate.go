package chunkstat

import "iter"

// Add folds a record into the set
func (s PartialSet) Add(rec RawRecord) {
	st, ok := s[rec.Key]
	if !ok {
		s[rec.Key] = NewStat(rec.Key, rec.Value)
		return
	}
	s[rec.Key] = st.Add(rec.Value)
}

// Aggregate reduces a chunk's records to one Stat per key
func Aggregate(records iter.Seq[RawRecord]) PartialSet {
	set := make(PartialSet)
	for rec := range records {
		set.Add(rec)
	}
	return set
}

// AggregateLines parses and aggregates raw lines, returning the number of
// lines the parser dropped.
func AggregateLines(lines []string) (PartialSet, int) {
	skipped := 0
	set := Aggregate(func(yield func(RawRecord) bool) {
		for _, line := range lines {
			rec, ok := ParseLine(line)
			if !ok {
				skipped++
				continue
			}
			if !yield(rec) {
				return
			}
		}
	})
	return set, skipped
}
