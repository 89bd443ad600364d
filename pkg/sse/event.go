// Package sse provides the wire framing for the chat API's event stream.
//
// The stream is a sequence of newline-delimited lines. Only lines beginning
// with DataPrefix carry a record; all other lines, including blank keep-alive
// lines, are ignored. Bytes arrive in arbitrary transport chunks, so the
// package decodes UTF-8 incrementally and only yields a line once its
// terminating newline has been seen.
//
// ┌─────────────┐   ┌─────────┐   ┌────────────┐   ┌────────┐
// │ byte chunks │──▶│ Decoder │──▶│ LineFramer │──▶│ Record │
// └─────────────┘   └─────────┘   └────────────┘   └────────┘
package sse

import "strings"

// DataPrefix marks a significant line in the event stream.
const DataPrefix = "data: "

// Record is a single significant line of the event stream.
type Record struct {
	// Data is the line content following DataPrefix.
	Data string

	// Line is the complete line as received, without its line terminator.
	Line string
}

// ParseLine returns the Record carried by line. The second return value is
// false for lines that do not start with DataPrefix.
func ParseLine(line string) (Record, bool) {
	data, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return Record{}, false
	}

	return Record{Data: data, Line: line}, true
}
