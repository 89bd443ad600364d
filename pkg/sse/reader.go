package sse

import (
	"errors"
	"fmt"
	"io"
)

// defaultChunkSize is the read buffer size used by TeeReader.
const defaultChunkSize = 4096

// TeeReader reads the event stream from a source io.Reader while writing all
// raw bytes verbatim to a destination io.Writer.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │ TeeReader.Next() │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │     []Record     │
// └──────────────────┘
//
// The destination receives the exact bytes of the stream, while the caller
// inspects the records completed by each transport chunk.
type TeeReader struct {
	src      io.Reader
	dest     io.Writer
	buf      []byte
	splitter *Splitter
	done     bool
}

// NewTeeReader returns a TeeReader over src. A nil dest discards the raw bytes.
func NewTeeReader(src io.Reader, dest io.Writer) *TeeReader {
	if dest == nil {
		dest = io.Discard
	}

	return &TeeReader{
		src:      src,
		dest:     dest,
		buf:      make([]byte, defaultChunkSize),
		splitter: NewSplitter(),
	}
}

// Next performs one read from the source and returns the records completed
// by that chunk, which may be none. At end of stream it returns the records
// flushed from the pending tail together with io.EOF. Any other read error is
// returned as is, and the pending tail is discarded.
func (r *TeeReader) Next() ([]Record, error) {
	if r.done {
		return nil, io.EOF
	}

	n, err := r.src.Read(r.buf)
	var recs []Record
	if n > 0 {
		if _, werr := r.dest.Write(r.buf[:n]); werr != nil {
			r.done = true
			return nil, fmt.Errorf("writing raw stream: %w", werr)
		}
		recs = r.splitter.Push(r.buf[:n])
	}

	switch {
	case err == nil:
		return recs, nil
	case errors.Is(err, io.EOF):
		r.done = true
		return append(recs, r.splitter.Flush()...), io.EOF
	default:
		r.done = true
		return recs, err
	}
}
