// Package stream assembles the chat API's streamed reply into a single
// growing message.
//
// An Assembler consumes the raw byte chunks of one response body, in order,
// and produces an Update whenever a complete event has been parsed:
//
//	data: {"type":"chunk","content":"Hel"}
//	data: {"type":"chunk","content":"lo"}
//	data: {"type":"sources","content":"\n---\n**Sources:** ..."}
//	data: {"type":"done"}
//
// The Assembler does no I/O. Run drives one from an io.Reader, and Start runs
// that loop on its own goroutine as a cancellable Task.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates stream events.
type Kind string

const (
	// KindChunk carries a text fragment to append.
	KindChunk Kind = "chunk"

	// KindSources carries the citation listing. No chunks follow it.
	KindSources Kind = "sources"

	// KindDone marks successful completion.
	KindDone Kind = "done"

	// KindError carries a server-side failure message.
	KindError Kind = "error"
)

// Event is a single typed record of the stream.
type Event struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content,omitempty"`
}

var errUnknownKind = errors.New("unknown event type")

// ParseEvent decodes the JSON payload of a data line.
func ParseEvent(data string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return Event{}, err
	}

	switch ev.Kind {
	case KindChunk, KindSources, KindDone, KindError:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("%w: %q", errUnknownKind, ev.Kind)
	}
}
