package stream

import (
	"context"
	"io"
)

// updateBuffer is the capacity of a Task's update channel.
const updateBuffer = 16

// Task is an assembly running on its own goroutine. Updates arrive in order
// on Updates(); the channel is closed when the task ends. A caller that stops
// draining Updates must Cancel the task.
type Task struct {
	id      string
	updates chan Update
	cancel  context.CancelFunc
	done    chan struct{}

	result Result
	err    error
}

// TaskOption configures Start.
type TaskOption func(*taskConfig)

type taskConfig struct {
	assembler []Option
	tee       io.Writer
}

// WithAssemblerOptions passes opts to the task's Assembler.
func WithAssemblerOptions(opts ...Option) TaskOption {
	return func(c *taskConfig) {
		c.assembler = append(c.assembler, opts...)
	}
}

// WithTee copies the raw response bytes to w.
func WithTee(w io.Writer) TaskOption {
	return func(c *taskConfig) {
		c.tee = w
	}
}

// Start begins assembling body in the background. The task owns body and
// closes it when it ends or is cancelled, which unblocks a pending read.
func Start(ctx context.Context, body io.ReadCloser, opts ...TaskOption) *Task {
	c := &taskConfig{}
	for _, opt := range opts {
		opt(c)
	}

	ctx, cancel := context.WithCancel(ctx)
	a := NewAssembler(c.assembler...)
	t := &Task{
		id:      a.ID(),
		updates: make(chan Update, updateBuffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go t.run(ctx, a, body, c.tee)
	return t
}

func (t *Task) run(ctx context.Context, a *Assembler, body io.ReadCloser, tee io.Writer) {
	defer close(t.done)
	defer close(t.updates)
	defer t.cancel()

	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer func() {
		stop()
		_ = body.Close()
	}()

	send := func(u Update) {
		select {
		case t.updates <- u:
		case <-ctx.Done():
		}
	}

	t.result, t.err = a.Consume(ctx, body, tee, send)
	if t.err != nil && ctx.Err() == nil {
		send(Update{
			RequestID: t.id,
			Text:      t.result.Text,
			Final:     true,
			Err:       t.err,
		})
	}
}

// ID returns the request id of the assembly.
func (t *Task) ID() string {
	return t.id
}

// Updates returns the channel of updates. It is closed when the task ends.
func (t *Task) Updates() <-chan Update {
	return t.updates
}

// Cancel stops the task. Buffered partial text is not flushed as a final
// update, and Wait reports a *TransportError wrapping context.Canceled.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task has ended.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task ends and returns its result.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}
