package sse

// Splitter combines a Decoder and a LineFramer: it turns raw transport chunks
// into the Records they complete.
type Splitter struct {
	decoder *Decoder
	framer  LineFramer
}

// NewSplitter returns a Splitter for a single stream.
func NewSplitter() *Splitter {
	return &Splitter{decoder: NewDecoder()}
}

// Push decodes chunk and returns the Records of every line it completes.
func (s *Splitter) Push(chunk []byte) []Record {
	return records(s.framer.Push(s.decoder.Decode(chunk)))
}

// Flush is called at end of stream. It decodes any carried bytes and treats a
// non-empty pending tail as one last complete line.
func (s *Splitter) Flush() []Record {
	lines := s.framer.Push(s.decoder.Flush())
	if tail, ok := s.framer.Flush(); ok {
		lines = append(lines, tail)
	}

	return records(lines)
}

// Pending returns the decoded text buffered after the last newline.
func (s *Splitter) Pending() string {
	return s.framer.Pending()
}

// PendingBytes returns how many raw bytes of an incomplete character are
// held for the next chunk.
func (s *Splitter) PendingBytes() int {
	return s.decoder.Pending()
}

func records(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		if rec, ok := ParseLine(line); ok {
			out = append(out, rec)
		}
	}

	return out
}
