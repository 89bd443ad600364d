package stream

import (
	"context"
	"errors"
	"io"

	"github.com/fiekai/fiekchat/pkg/sse"
)

// Run assembles the stream read from r, calling fn for each Update in order.
// It returns when the message is complete, when the stream fails, or when ctx
// is done. A read blocked on r is only interrupted if r itself observes ctx,
// as an http.Response body does for its request context; Start additionally
// closes the body on cancellation.
func Run(ctx context.Context, r io.Reader, fn func(Update), opts ...Option) (Result, error) {
	return NewAssembler(opts...).Consume(ctx, r, nil, fn)
}

// Consume drives the Assembler from r. When tee is not nil, every raw byte
// read is copied to it. Reading stops as soon as the message is final; the
// rest of r is left unread.
func (a *Assembler) Consume(ctx context.Context, r io.Reader, tee io.Writer, fn func(Update)) (Result, error) {
	if a.err != nil {
		return a.Result(), a.err
	}
	if a.closed {
		return a.Result(), ErrClosed
	}
	if fn == nil {
		fn = func(Update) {}
	}
	emit := func(updates []Update) {
		for _, u := range updates {
			fn(u)
		}
	}

	tr := sse.NewTeeReader(r, tee)
	for {
		if err := ctx.Err(); err != nil {
			return a.Result(), a.Abort(err)
		}

		recs, rerr := tr.Next()

		updates, err := a.apply(recs)
		emit(updates)
		if err != nil {
			return a.Result(), err
		}
		if !a.streaming {
			a.closed = true
			return a.Result(), nil
		}

		switch {
		case rerr == nil:
			continue

		case errors.Is(rerr, io.EOF):
			a.closed = true
			updates, err := a.end(nil)
			emit(updates)
			return a.Result(), err

		default:
			if cerr := ctx.Err(); cerr != nil {
				rerr = cerr
			}
			return a.Result(), a.Abort(rerr)
		}
	}
}
