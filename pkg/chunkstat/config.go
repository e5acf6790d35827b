package chunkstat

import (
	"io"
	"log"
	"runtime"
)

// Config holds pipeline configuration. Zero values select defaults.
type Config struct {
	SourcePath string // File to aggregate (required unless Reader is set)

	// TotalLines is the number of lines to process. Zero derives it with a
	// pre-scan of the file, which also builds a LineIndex. When it is set and
	// no Index is given, the file is not scanned and every chunk skips its
	// lines from the start of the file.
	TotalLines uint64

	ChunkSize   uint64 // Lines per chunk (default: about Parallelism*4 chunks)
	Parallelism int    // Worker pool size (default: NumCPU-1, at least 1)

	IndexStride  uint64     // Lines between LineIndex entries (default: DefaultIndexStride)
	DisableIndex bool       // Skip from the start of the file for every chunk
	Index        *LineIndex // Previously built index to reuse

	// Reader replaces the file source. TotalLines is required when it is set.
	Reader ChunkReader

	Logger   *log.Logger                             // nil discards logs
	Progress func(d ChunkDescriptor, done, total int) // Called once per completed chunk
}

// DefaultParallelism leaves one processing unit free
func DefaultParallelism() int {
	return max(1, runtime.NumCPU()-1)
}

func (c Config) withDefaults() Config {
	if c.Parallelism == 0 {
		c.Parallelism = DefaultParallelism()
	}
	if c.IndexStride == 0 {
		c.IndexStride = DefaultIndexStride
	}
	if c.DisableIndex {
		c.IndexStride = 0
		c.Index = nil
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	return c
}

func (c Config) validate() error {
	if c.Parallelism < 1 {
		return invalidConfig("parallelism must be positive, got %d", c.Parallelism)
	}
	if c.Reader == nil && c.SourcePath == "" {
		return invalidConfig("source path is required")
	}
	if c.Reader != nil && c.TotalLines == 0 {
		return invalidConfig("total lines is required with a custom reader")
	}
	return nil
}
