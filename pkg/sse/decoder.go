package sse

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder converts raw UTF-8 byte chunks into text. A multi-byte sequence
// split across two chunks is held back until the rest of it arrives.
// Invalid byte sequences decode to U+FFFD and a leading byte order mark is
// dropped, matching the behavior of a browser TextDecoder.
type Decoder struct {
	transformer transform.Transformer
	carry       []byte
}

// NewDecoder returns a Decoder ready for the first chunk of a stream.
func NewDecoder() *Decoder {
	return &Decoder{
		transformer: unicode.UTF8BOM.NewDecoder(),
	}
}

// Decode returns the text decoded from chunk plus any bytes carried over from
// the previous call. An incomplete trailing sequence is kept for the next call.
func (d *Decoder) Decode(chunk []byte) string {
	return d.decode(chunk, false)
}

// Flush decodes whatever is still carried at end of stream. An incomplete
// sequence becomes U+FFFD. The Decoder is reset and may be reused.
func (d *Decoder) Flush() string {
	out := d.decode(nil, true)
	d.transformer.Reset()
	d.carry = nil
	return out
}

// Pending reports how many undecoded bytes are being carried.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) decode(chunk []byte, atEOF bool) string {
	src := make([]byte, 0, len(d.carry)+len(chunk))
	src = append(src, d.carry...)
	src = append(src, chunk...)
	if len(src) == 0 && !atEOF {
		return ""
	}

	// Each invalid byte can expand to the three bytes of U+FFFD.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	out := make([]byte, 0, len(src))

	for {
		nDst, nSrc, err := d.transformer.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]

		if errors.Is(err, transform.ErrShortDst) {
			if nSrc == 0 && nDst == 0 {
				dst = make([]byte, 2*len(dst))
			}
			continue
		}

		// nil or transform.ErrShortSrc: whatever is left is an incomplete
		// sequence waiting for more input.
		break
	}

	d.carry = append(d.carry[:0:0], src...)
	return string(out)
}
