package generator

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
)

// MeasurementGenerator writes station;temperature lines with one decimal.
type MeasurementGenerator struct {
	KeyCount int
	rand     *rand.Rand
	stations []station
}

type station struct {
	name string
	mean float64
}

var stationNames = []string{
	"Abha", "Accra", "Addis Ababa", "Adelaide", "Aden", "Alexandria",
	"Almaty", "Amsterdam", "Anchorage", "Athens", "Baghdad", "Bangkok",
	"Barcelona", "Beijing", "Belgrade", "Berlin", "Bogotá", "Boston",
	"Bratislava", "Brussels", "Budapest", "Cairo", "Cape Town", "Chicago",
	"Copenhagen", "Dakar", "Dublin", "Edinburgh", "Hamburg", "Helsinki",
	"Istanbul", "Jakarta", "Kyiv", "Lagos", "Lima", "Lisbon", "London",
	"Madrid", "Montreal", "Moscow", "Nairobi", "Oslo", "Ottawa", "Paris",
	"Prague", "Reykjavík", "Riga", "Rome", "Seoul", "Sydney", "Tokyo",
	"Toronto", "Vienna", "Warsaw", "Zürich",
}

func (g *MeasurementGenerator) Init(r *rand.Rand) {
	g.rand = r
	n := max(g.KeyCount, 1)
	g.stations = make([]station, n)
	for i := range g.stations {
		name := stationNames[i%len(stationNames)]
		if i >= len(stationNames) {
			name = fmt.Sprintf("%s %d", name, i/len(stationNames))
		}
		g.stations[i] = station{name: name, mean: r.Float64()*60 - 20}
	}
}

// temperature returns a reading around the station's mean, clamped to [-99.9, 99.9].
func (g *MeasurementGenerator) temperature(s station) float64 {
	v := g.rand.NormFloat64()*10 + s.mean
	v = math.Max(-99.9, math.Min(99.9, v))
	return math.Round(v*10) / 10
}

func (g *MeasurementGenerator) WriteLine(w io.Writer) error {
	s := g.stations[g.rand.IntN(len(g.stations))]
	_, err := fmt.Fprintf(w, "%s;%.1f\n", s.name, g.temperature(s))
	return err
}

func (g *MeasurementGenerator) Description() string {
	return "Weather readings: station;temperature"
}
