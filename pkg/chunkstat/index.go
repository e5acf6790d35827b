package chunkstat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

const (
	// DefaultIndexStride is the number of lines between two index entries
	DefaultIndexStride = 1 << 16

	scanBufferSize = 1 << 20
)

// LineIndex is a sparse map from line number to byte offset, built while
// counting the lines of a file. Offsets[k] is the offset of line k*Stride.
type LineIndex struct {
	Stride  uint64    `json:"stride"`
	Lines   uint64    `json:"lines"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Offsets []int64   `json:"offsets"`
}

// Scan counts the lines of the file at path. When stride is non-zero it also
// records the offset of every stride-th line. A final line without a
// trailing newline still counts.
func Scan(ctx context.Context, path string, stride uint64) (*LineIndex, error) {
	f, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, ioError("stat", err)
	}

	idx := &LineIndex{Stride: stride, Size: fi.Size(), ModTime: fi.ModTime()}
	if stride > 0 {
		idx.Offsets = []int64{0}
	}

	buf := make([]byte, scanBufferSize)
	var (
		pos   int64
		lines uint64
		last  byte = '\n'
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := f.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if stride == 0 {
				lines += uint64(bytes.Count(chunk, []byte{'\n'}))
			} else {
				off := 0
				for {
					i := bytes.IndexByte(chunk[off:], '\n')
					if i < 0 {
						break
					}
					off += i + 1
					lines++
					if lines%stride == 0 {
						idx.Offsets = append(idx.Offsets, pos+int64(off))
					}
				}
			}
			last = chunk[n-1]
			pos += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ioError("scan "+path, err)
		}
	}

	if last != '\n' {
		lines++
	}
	idx.Lines = lines

	// An entry pointing at EOF does not start a line.
	for len(idx.Offsets) > 1 && uint64(len(idx.Offsets)-1)*stride >= lines {
		idx.Offsets = idx.Offsets[:len(idx.Offsets)-1]
	}

	return idx, nil
}

// Seek returns the byte offset and line number of the closest indexed line at
// or before line. A nil or empty index always answers (0, 0).
func (idx *LineIndex) Seek(line uint64) (int64, uint64) {
	if idx == nil || idx.Stride == 0 || len(idx.Offsets) == 0 {
		return 0, 0
	}
	k := line / idx.Stride
	if k >= uint64(len(idx.Offsets)) {
		k = uint64(len(idx.Offsets) - 1)
	}
	return idx.Offsets[k], k * idx.Stride
}

// Matches reports whether the index was built from a file with the given
// size and modification time.
func (idx *LineIndex) Matches(fi fs.FileInfo) bool {
	return idx != nil && idx.Size == fi.Size() && idx.ModTime.Equal(fi.ModTime())
}

func openSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, ioError("open", err)
	}
	return f, nil
}
