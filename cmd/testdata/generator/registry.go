package generator

import (
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
)

// Options parameterize the generator factories.
type Options struct {
	Keys  int
	Noise float64
}

// Registry maps generator names to generator factory functions
var Registry = map[string]func(Options) Generator{
	"measurements": func(o Options) Generator { return &MeasurementGenerator{KeyCount: o.Keys} },
	"noisy": func(o Options) Generator {
		return &NoisyGenerator{Inner: &MeasurementGenerator{KeyCount: o.Keys}, Noise: o.Noise}
	},
}

// Get returns a generator by name
func Get(name string, opts Options) (Generator, error) {
	factory, exists := Registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown generator: %s", name)
	}
	return factory(opts), nil
}

// List returns all available generator names, sorted
func List() []string {
	var names []string
	for name := range Registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Write generates count lines into w using a random source seeded with seed.
func Write(w io.Writer, g Generator, count int64, seed uint64) error {
	g.Init(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	for i := int64(0); i < count; i++ {
		if err := g.WriteLine(w); err != nil {
			return fmt.Errorf("write line %d: %w", i, err)
		}
	}
	return nil
}
