package chunkstat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const (
	readerBufferSize = 256 << 10

	// how many lines to skip or read between two context checks
	ctxCheckInterval = 4096
)

// ChunkReader returns the raw lines of one chunk.
type ChunkReader interface {
	ReadChunk(ctx context.Context, d ChunkDescriptor) ([]string, error)
}

// Source reads line ranges from a file. Every ReadChunk call opens its own
// handle, so a Source can be shared by any number of workers.
type Source struct {
	path  string
	info  fs.FileInfo
	index *LineIndex
}

// OpenSource checks that path names a readable regular file
func OpenSource(path string) (*Source, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, ioError("stat", err)
	}
	if fi.IsDir() {
		return nil, ioError("open", fmt.Errorf("%s is a directory", path))
	}
	return &Source{path: path, info: fi}, nil
}

func (s *Source) Path() string { return s.path }
func (s *Source) Size() int64 { return s.info.Size() }
func (s *Source) Info() fs.FileInfo { return s.info }

// UseIndex lets ReadChunk seek close to a chunk's first line instead of
// skipping from the start of the file. It must be called before reads start.
func (s *Source) UseIndex(idx *LineIndex) {
	s.index = idx
}

// ReadChunk returns the lines [d.StartLine, d.End()) without their line
// terminators. If the file ends early, the lines that exist are returned.
func (s *Source) ReadChunk(ctx context.Context, d ChunkDescriptor) ([]string, error) {
	// the file existed when the source was opened, so any failure here is an I/O error
	f, err := os.Open(s.path)
	if err != nil {
		return nil, ioError("open", err)
	}
	defer f.Close()

	offset, line := s.index.Seek(d.StartLine)
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, ioError("seek", err)
		}
	}

	r := bufio.NewReaderSize(f, readerBufferSize)
	for ; line < d.StartLine; line++ {
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := skipLine(r); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, ioError("skip", err)
		}
	}

	lines := make([]string, 0, min(d.Length, ctxCheckInterval))
	for uint64(len(lines)) < d.Length {
		if len(lines)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text, err := r.ReadString('\n')
		if text != "" {
			lines = append(lines, trimEOL(text))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ioError("read", err)
		}
	}

	return lines, nil
}

// skipLine consumes input up to and including the next newline
func skipLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
