package stream

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/sse"
)

// Assembler folds the event stream of one response into a single message.
// It is owned by one goroutine and is not safe for concurrent use.
type Assembler struct {
	id     string
	logger *slog.Logger

	splitter *sse.Splitter
	text     strings.Builder

	streaming bool
	truncated bool
	closed    bool

	// err is the terminal failure, returned again by later calls.
	err error

	events    int
	malformed int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithRequestID sets the id carried by every Update. A random UUID is used
// otherwise.
func WithRequestID(id string) Option {
	return func(a *Assembler) {
		a.id = id
	}
}

// WithLogger sets the logger for skipped records.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger.OrNop(l)
	}
}

// NewAssembler returns an Assembler waiting for the first chunk.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		logger:    logger.Nop(),
		splitter:  sse.NewSplitter(),
		streaming: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.id == "" {
		a.id = uuid.NewString()
	}

	return a
}

// ID returns the request id of the assembly.
func (a *Assembler) ID() string {
	return a.id
}

// Feed processes one raw transport chunk and returns the updates produced by
// the events it completes. An "error" event stops processing and is returned
// as a *ServerError. Once the message is final, further chunks are accepted
// and ignored.
func (a *Assembler) Feed(chunk []byte) ([]Update, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.closed {
		return nil, ErrClosed
	}

	return a.apply(a.splitter.Push(chunk))
}

// Close signals end of stream. A non-empty pending tail is processed as a
// last line. When no terminal event has been seen, a final update flagged
// Truncated is forced. Close is idempotent.
func (a *Assembler) Close() ([]Update, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.closed {
		return nil, nil
	}
	a.closed = true

	return a.end(a.splitter.Flush())
}

// Abort ends the assembly because the transport failed. The returned
// *TransportError carries the partial text. Aborting an assembly that is
// already final is a no-op and returns nil.
func (a *Assembler) Abort(cause error) error {
	if a.err != nil {
		return a.err
	}

	a.closed = true
	if !a.streaming {
		return nil
	}

	a.streaming = false
	a.err = &TransportError{Partial: a.text.String(), Err: cause}
	return a.err
}

// State returns a snapshot of the assembly.
func (a *Assembler) State() State {
	return State{
		RequestID:    a.id,
		Text:         a.text.String(),
		Streaming:    a.streaming,
		Pending:      a.splitter.Pending(),
		PendingBytes: a.splitter.PendingBytes(),
	}
}

// Result summarizes the assembly so far.
func (a *Assembler) Result() Result {
	return Result{
		RequestID: a.id,
		Text:      a.text.String(),
		Truncated: a.truncated,
		Events:    a.events,
		Malformed: a.malformed,
	}
}

// end applies the records flushed at end of stream and forces a final update
// when the stream stopped short of a terminal event.
func (a *Assembler) end(recs []Record) ([]Update, error) {
	updates, err := a.apply(recs)
	if err != nil {
		return updates, err
	}

	if a.streaming {
		a.streaming = false
		a.truncated = true
		a.logger.Debug("stream ended without a terminal event",
			"request_id", a.id,
			"length", a.text.Len(),
		)

		u := a.update(true)
		u.Truncated = true
		updates = append(updates, u)
	}

	return updates, nil
}

// Record is an alias so callers driving the Assembler from an sse.TeeReader
// do not need to convert.
type Record = sse.Record

// apply runs the records through the event state machine, in order.
func (a *Assembler) apply(recs []Record) ([]Update, error) {
	var updates []Update
	for _, rec := range recs {
		if !a.streaming {
			a.logger.Debug("ignoring record after final update",
				"request_id", a.id,
				"line", rec.Line,
			)
			continue
		}

		ev, err := ParseEvent(rec.Data)
		if err != nil {
			a.malformed++
			a.logger.Debug("skipping malformed stream record",
				"request_id", a.id,
				logger.Err(&MalformedRecordError{Line: rec.Line, Err: err}),
			)
			continue
		}
		a.events++

		switch ev.Kind {
		case KindChunk:
			a.text.WriteString(ev.Content)
			updates = append(updates, a.update(false))

		case KindSources:
			a.text.WriteString(ev.Content)
			a.streaming = false
			updates = append(updates, a.update(true))

		case KindDone:
			a.streaming = false
			updates = append(updates, a.update(true))

		case KindError:
			a.streaming = false
			a.closed = true
			a.err = &ServerError{Message: ev.Content, Partial: a.text.String()}
			return updates, a.err
		}
	}

	return updates, nil
}

func (a *Assembler) update(final bool) Update {
	return Update{
		RequestID: a.id,
		Text:      a.text.String(),
		Final:     final,
	}
}
