package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"pkg.jsn.cam/chunkstat/cmd/testdata/generator"
)

/*generates a ton of test data in the form of {station};{temperature}*/

var (
	Kind       = flag.String("generator", "measurements", "Generator to use ("+strings.Join(generator.List(), ", ")+")")
	KeyCount   = flag.Int("keys", 400, "Number of unique stations")
	TotalCount = flag.Int64("count", 1e6, "Total number of lines to generate")
	OutputPath = flag.String("output", "var/measurements.txt", "Output file path")
	Seed       = flag.Uint64("seed", 0, "Random seed (0 = time based)")
	Noise      = flag.Float64("noise", 0.01, "Fraction of malformed lines for the noisy generator")
)

func main() {
	flag.Parse()

	g, err := generator.Get(*Kind, generator.Options{Keys: *KeyCount, Noise: *Noise})
	if err != nil {
		log.Fatal(err)
	}

	seed := *Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if err := os.MkdirAll(filepath.Dir(*OutputPath), 0755); err != nil {
		log.Fatal(err)
	}
	file, err := os.Create(*OutputPath)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	start := time.Now()
	w := bufio.NewWriterSize(file, 1<<20)
	if err := generator.Write(w, g, *TotalCount, seed); err != nil {
		log.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		log.Fatal(err)
	}

	info, err := file.Stat()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: wrote %s lines (%s) to %s in %v (seed %d)\n",
		g.Description(), humanize.Comma(*TotalCount), humanize.Bytes(uint64(info.Size())),
		*OutputPath, time.Since(start).Round(time.Millisecond), seed)
}
