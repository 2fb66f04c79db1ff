package flowlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"FlowTagger/internal/model"
)

// MaxLineSize bounds a single flow-log line. Longer lines are reported through
// Oversized and their content is discarded.
const MaxLineSize = 1024 * 1024

const readBufferSize = 64 * 1024

// Reader reads flow-log lines from a file or stream.
type Reader struct {
	br     *bufio.Reader
	closer io.Closer

	line      []byte
	oversized bool
	done      bool
	err       error
}

// NewReader opens the flow log at filePath.
func NewReader(filePath string) (*Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow log '%s': %w: %v", filePath, model.ErrResourceNotFound, err)
	}
	r := NewScanner(file)
	r.closer = file
	return r, nil
}

// NewScanner reads flow-log lines from r. Closing the returned Reader does not close r.
func NewScanner(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, readBufferSize)}
}

// Next advances to the next line. It returns false at the end of input or on a read error.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	r.line = r.line[:0]
	r.oversized = false

	for {
		chunk, err := r.br.ReadSlice('\n')
		if !r.oversized {
			r.line = append(r.line, chunk...)
			// Room for a trailing "\r\n".
			if len(r.line) > MaxLineSize+2 {
				r.oversized = true
				r.line = r.line[:0]
			}
		}

		switch {
		case err == nil:
			return r.finishLine()
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			r.done = true
			if len(r.line) == 0 && !r.oversized {
				return false
			}
			return r.finishLine()
		default:
			r.done = true
			r.err = err
			return false
		}
	}
}

func (r *Reader) finishLine() bool {
	r.line = bytes.TrimSuffix(r.line, []byte("\n"))
	r.line = bytes.TrimSuffix(r.line, []byte("\r"))
	if len(r.line) > MaxLineSize {
		r.oversized = true
		r.line = r.line[:0]
	}
	return true
}

// Text returns the current line. It is empty for an oversized line.
func (r *Reader) Text() string {
	return string(r.line)
}

// Oversized reports whether the current line exceeded MaxLineSize.
func (r *Reader) Oversized() bool {
	return r.oversized
}

// Err returns the first non-EOF error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
