package generator

import (
	"io"
	"math/rand/v2"
)

// NoisyGenerator wraps another generator and replaces a fraction of its
// lines with malformed ones.
type NoisyGenerator struct {
	Inner Generator
	Noise float64
	rand  *rand.Rand
}

var malformedLines = []string{
	"\n",
	"   \n",
	"no separator here\n",
	";12.5\n",
	"Oslo;\n",
	"Oslo;warm\n",
	"Oslo;1.0;2.0\n",
	"Oslo;NaN\n",
	"Oslo;+Inf\n",
	"Oslo;0x1p3\n",
}

func (g *NoisyGenerator) Init(r *rand.Rand) {
	g.rand = r
	g.Inner.Init(r)
}

func (g *NoisyGenerator) WriteLine(w io.Writer) error {
	if g.rand.Float64() < g.Noise {
		_, err := io.WriteString(w, malformedLines[g.rand.IntN(len(malformedLines))])
		return err
	}
	return g.Inner.WriteLine(w)
}

func (g *NoisyGenerator) Description() string {
	return g.Inner.Description() + " with malformed lines"
}
