package chunkstat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Report describes a completed run.
type Report struct {
	RunID        string        `json:"run_id"`
	SourcePath   string        `json:"source_path"`
	TotalLines   uint64        `json:"total_lines"`
	ChunkSize    uint64        `json:"chunk_size"`
	Chunks       int           `json:"chunks"`
	Parallelism  int           `json:"parallelism"`
	LinesRead    uint64        `json:"lines_read"`
	LinesSkipped uint64        `json:"lines_skipped"`
	Keys         int           `json:"keys"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// Result is the outcome of a successful run.
type Result struct {
	Table  Table
	Report Report
	Index  *LineIndex // Index built or reused by the run, nil when disabled
}

type chunkResult struct {
	chunk   ChunkDescriptor
	set     PartialSet
	lines   int
	skipped int
}

type collected struct {
	sets    []PartialSet
	lines   uint64
	skipped uint64
}

// Run plans the source into chunks, aggregates them on a bounded worker pool
// and merges the partial results. Either the full table is returned or an
// error; a failed chunk fails the whole run with a *PipelineError.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := cfg.Logger
	prefix := fmt.Sprintf("[PIPELINE:%s]", runID[:8])
	started := time.Now()

	reader, total, index, err := prepareSource(ctx, cfg, logger, prefix)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, invalidConfig("%s has no lines", cfg.SourcePath)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize(total, cfg.Parallelism)
	}
	plan, err := NewPlan(total, chunkSize)
	if err != nil {
		return nil, err
	}

	logger.Printf("%s Planned %d chunks of %s lines over %s lines (parallelism %d)",
		prefix, plan.Len(), humanize.Comma(int64(chunkSize)), humanize.Comma(int64(total)), cfg.Parallelism)

	col, err := execute(ctx, runID, reader, plan, cfg)
	if err != nil {
		logger.Printf("%s Run failed: %v", prefix, err)
		return nil, err
	}

	var table Table
	if cfg.Parallelism > 1 {
		table, err = ReduceSharded(ctx, col.sets, cfg.Parallelism)
		if err != nil {
			return nil, fmt.Errorf("%w: merge: %w", ErrPipelineFailed, err)
		}
	} else {
		table = Reduce(col.sets)
	}

	report := Report{
		RunID:        runID,
		SourcePath:   cfg.SourcePath,
		TotalLines:   total,
		ChunkSize:    chunkSize,
		Chunks:       plan.Len(),
		Parallelism:  cfg.Parallelism,
		LinesRead:    col.lines,
		LinesSkipped: col.skipped,
		Keys:         len(table),
		StartedAt:    started,
		Duration:     time.Since(started),
	}

	logger.Printf("%s Completed in %v: %s lines read, %s skipped, %d keys",
		prefix, report.Duration, humanize.Comma(int64(col.lines)), humanize.Comma(int64(col.skipped)), len(table))

	return &Result{Table: table, Report: report, Index: index}, nil
}

// prepareSource resolves the reader and the line count, pre-scanning the file
// only when the count is not configured. A known count never costs an extra
// pass over the file.
func prepareSource(ctx context.Context, cfg Config, logger *log.Logger, prefix string) (ChunkReader, uint64, *LineIndex, error) {
	if cfg.Reader != nil {
		return cfg.Reader, cfg.TotalLines, nil, nil
	}

	src, err := OpenSource(cfg.SourcePath)
	if err != nil {
		return nil, 0, nil, err
	}

	index := cfg.Index
	if index != nil && !index.Matches(src.Info()) {
		logger.Printf("%s Ignoring stale line index for %s", prefix, src.Path())
		index = nil
	}

	total := cfg.TotalLines
	if total == 0 && index != nil {
		total = index.Lines
	}
	if total == 0 {
		logger.Printf("%s Scanning %s (%s)", prefix, src.Path(), humanize.Bytes(uint64(src.Size())))
		scanned, err := Scan(ctx, src.Path(), cfg.IndexStride)
		if err != nil {
			return nil, 0, nil, err
		}
		total = scanned.Lines
		if cfg.IndexStride > 0 {
			index = scanned
		}
	}
	src.UseIndex(index)

	return src, total, index, nil
}

// execute fans the plan out to the worker pool. Partial sets are handed to a
// single collector goroutine over a channel; nothing else is shared.
func execute(ctx context.Context, runID string, reader ChunkReader, plan *Plan, cfg Config) (*collected, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)

	results := make(chan chunkResult, cfg.Parallelism)
	done := make(chan *collected, 1)

	go func() {
		col := &collected{sets: make([]PartialSet, 0, plan.Len())}
		n := 0
		for r := range results {
			col.sets = append(col.sets, r.set)
			col.lines += uint64(r.lines)
			col.skipped += uint64(r.skipped)
			n++
			if cfg.Progress != nil {
				cfg.Progress(r.chunk, n, plan.Len())
			}
		}
		done <- col
	}()

	var (
		mu     sync.Mutex
		failed []*ChunkError
	)

	for d := range plan.All() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lines, err := reader.ReadChunk(gctx, d)
			if err != nil {
				// chunks interrupted because another one failed are not failures themselves
				if gctx.Err() != nil && errors.Is(err, context.Canceled) {
					return err
				}
				ce := &ChunkError{Chunk: d, Err: err}
				mu.Lock()
				failed = append(failed, ce)
				mu.Unlock()
				cfg.Logger.Printf("[WORKER:%d] %v", d.Index, ce)
				return ce
			}

			set, skipped := AggregateLines(lines)
			cfg.Logger.Printf("[WORKER:%d] %d lines, %d keys, %d skipped", d.Index, len(lines), len(set), skipped)

			select {
			case results <- chunkResult{chunk: d, set: set, lines: len(lines), skipped: skipped}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(results)
	col := <-done

	if len(failed) > 0 {
		return nil, &PipelineError{RunID: runID, Failed: failed}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipelineFailed, err)
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipelineFailed, cerr)
	}
	return col, nil
}
