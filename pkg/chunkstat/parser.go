package chunkstat

import (
	"math"
	"strconv"
	"strings"
)

// FieldSeparator splits the key from the value on every line.
const FieldSeparator = ";"

// ParseLine splits a `key;value` line. It reports false for blank lines,
// lines without exactly two fields, empty keys and values that are not
// finite decimal numbers. Such lines are skipped, never treated as errors.
func ParseLine(line string) (RawRecord, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return RawRecord{}, false
	}

	key, raw, ok := strings.Cut(line, FieldSeparator)
	if !ok || key == "" || strings.Contains(raw, FieldSeparator) {
		return RawRecord{}, false
	}

	raw = strings.TrimSpace(raw)
	// ParseFloat also accepts hex floats and underscores; the input format does not.
	if raw == "" || strings.ContainsAny(raw, "xX_") {
		return RawRecord{}, false
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return RawRecord{}, false
	}

	return RawRecord{Key: key, Value: v}, true
}
