package generator

import (
	"io"
	"math/rand/v2"
)

// Generator produces key;value test data.
type Generator interface {
	// Init sets a per-instance random source so output is reproducible for a seed.
	Init(r *rand.Rand)

	// WriteLine writes a single line of test data to the writer
	WriteLine(w io.Writer) error

	// Description returns a human-readable description of the data format
	Description() string
}
