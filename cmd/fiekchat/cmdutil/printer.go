package cmdutil

import (
	"io"
	"strings"

	"github.com/fiekai/fiekchat/pkg/stream"
)

// DeltaPrinter writes the text each stream update adds since the previous
// one, so a reply appears on w as it arrives.
type DeltaPrinter struct {
	w       io.Writer
	printed string
}

// NewDeltaPrinter returns a DeltaPrinter writing to w.
func NewDeltaPrinter(w io.Writer) *DeltaPrinter {
	return &DeltaPrinter{w: w}
}

// Print writes the unseen suffix of u.Text. It has the signature of a
// stream update callback.
func (p *DeltaPrinter) Print(u stream.Update) {
	if !strings.HasPrefix(u.Text, p.printed) {
		// A new reply; start over.
		p.printed = ""
	}
	if delta := u.Text[len(p.printed):]; delta != "" {
		_, _ = io.WriteString(p.w, delta)
		p.printed = u.Text
	}
}

// Printed reports whether anything has been written.
func (p *DeltaPrinter) Printed() bool {
	return p.printed != ""
}

// Reset forgets the printed text ahead of the next reply.
func (p *DeltaPrinter) Reset() {
	p.printed = ""
}
