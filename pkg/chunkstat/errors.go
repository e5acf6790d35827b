package chunkstat

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the pipeline's failure modes
var (
	// ErrInvalidConfiguration is returned before any work starts (zero lines, zero chunk size, ...)
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrFileNotFound is returned when the source path does not exist at open time
	ErrFileNotFound = errors.New("file not found")

	// ErrIO wraps read failures after the source was opened
	ErrIO = errors.New("i/o error")

	// ErrPipelineFailed is matched by every error that aborted a run after it started
	ErrPipelineFailed = errors.New("pipeline failed")
)

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func ioError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// ChunkError records why a single chunk could not be processed.
type ChunkError struct {
	Chunk ChunkDescriptor
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Chunk, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// PipelineError is returned when one or more chunks failed. No partial result
// accompanies it.
type PipelineError struct {
	RunID  string
	Failed []*ChunkError
}

func (e *PipelineError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, ce := range e.Failed {
		parts[i] = ce.Error()
	}
	return fmt.Sprintf("%v: run %s: %d chunk(s) failed: %s",
		ErrPipelineFailed, e.RunID, len(e.Failed), strings.Join(parts, "; "))
}

// Unwrap exposes ErrPipelineFailed and every chunk error to errors.Is/As
func (e *PipelineError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed)+1)
	errs = append(errs, ErrPipelineFailed)
	for _, ce := range e.Failed {
		errs = append(errs, ce)
	}
	return errs
}

// FailedChunks returns the indexes of the failed chunks
func (e *PipelineError) FailedChunks() []int {
	idx := make([]int, len(e.Failed))
	for i, ce := range e.Failed {
		idx[i] = ce.Chunk.Index
	}
	return idx
}
