package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"pkg.jsn.cam/chunkstat/internal/store"
	"pkg.jsn.cam/chunkstat/pkg/chunkstat"
)

const defaultDBPath = "var/chunkstat.db"

func runCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		path        = fs.String("path", "", "Path to the key;value input file")
		lines       = fs.Uint64("lines", 0, "Number of lines to process (0 = count with a pre-scan)")
		chunkSize   = fs.Uint64("chunk-size", 0, "Lines per chunk (0 = about 4 chunks per worker)")
		parallelism = fs.Int("parallelism", chunkstat.DefaultParallelism(), "Number of concurrent chunk workers")
		stride      = fs.Uint64("stride", chunkstat.DefaultIndexStride, "Lines between line index entries")
		noIndex     = fs.Bool("no-index", false, "Skip from the start of the file for every chunk")
		dbPath      = fs.String("db", defaultDBPath, "Run store database (empty = do not persist)")
		progress    = fs.Bool("progress", true, "Show a progress bar")
		verbose     = fs.Bool("v", false, "Log pipeline and worker activity")
	)
	fs.Parse(args)

	if *path == "" {
		return errors.New("-path is required")
	}
	absPath, err := filepath.Abs(*path)
	if err != nil {
		return err
	}

	cfg := chunkstat.Config{
		SourcePath:   absPath,
		TotalLines:   *lines,
		ChunkSize:    *chunkSize,
		Parallelism:  *parallelism,
		IndexStride:  *stride,
		DisableIndex: *noIndex,
	}
	if *verbose {
		cfg.Logger = log.Default()
	}

	var st *store.Store
	if *dbPath != "" {
		st, err = store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		if !*noIndex {
			idx, err := st.LoadIndex(absPath)
			if err != nil {
				log.Printf("Ignoring cached line index: %v", err)
			} else if idx != nil && idx.Stride == *stride {
				cfg.Index = idx
			}
		}
	}

	var bar *progressbar.ProgressBar
	if *progress {
		cfg.Progress = func(_ chunkstat.ChunkDescriptor, done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "aggregating chunks")
			}
			bar.Set(done)
		}
	}

	res, err := chunkstat.Run(ctx, cfg)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		var perr *chunkstat.PipelineError
		if errors.As(err, &perr) {
			for _, ce := range perr.Failed {
				log.Printf("Failed %v", ce)
			}
		}
		return err
	}

	if st != nil {
		if res.Index != nil && res.Index != cfg.Index {
			if err := st.SaveIndex(absPath, res.Index); err != nil {
				log.Printf("Failed to cache line index: %v", err)
			}
		}
		if err := st.SaveRun(res.Report, res.Table); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	renderTable(os.Stdout, res.Table)
	renderSummary(os.Stderr, res.Report)
	return nil
}

func runsCommand(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", defaultDBPath, "Run store database")
	fs.Parse(args)

	st, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	reports, err := st.ListRuns()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	renderRuns(os.Stdout, reports)
	return nil
}

func showCommand(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	var (
		dbPath = fs.String("db", defaultDBPath, "Run store database")
		id     = fs.String("id", "", "Run ID (a unique prefix is enough)")
	)
	fs.Parse(args)

	if *id == "" {
		return errors.New("-id is required")
	}

	st, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LoadRun(*id)
	if err != nil {
		return err
	}

	renderTable(os.Stdout, run.Table)
	renderSummary(os.Stdout, run.Report)
	return nil
}

func renderSummary(w io.Writer, r chunkstat.Report) {
	fmt.Fprintf(w, "\nRun %s\n", r.RunID)
	fmt.Fprintf(w, "  Source:      %s\n", r.SourcePath)
	fmt.Fprintf(w, "  Lines:       %s read, %s skipped\n", humanize.Comma(int64(r.LinesRead)), humanize.Comma(int64(r.LinesSkipped)))
	fmt.Fprintf(w, "  Chunks:      %d x %s lines (parallelism %d)\n", r.Chunks, humanize.Comma(int64(r.ChunkSize)), r.Parallelism)
	fmt.Fprintf(w, "  Keys:        %d\n", r.Keys)
	fmt.Fprintf(w, "  Started:     %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Duration:    %v\n", r.Duration)
}
