package stream

// State is a snapshot of an in-flight assembly.
type State struct {
	RequestID string

	// Text is every appended fragment, concatenated in arrival order. It
	// only grows for the lifetime of one assembly.
	Text string

	// Streaming is true until a terminal event arrives or the stream ends.
	// It goes false exactly once.
	Streaming bool

	// Pending is the decoded text after the last newline, not yet processed.
	Pending string

	// PendingBytes counts raw bytes of a character split by the last chunk.
	PendingBytes int
}

// Update is produced each time a complete event changes the message.
type Update struct {
	RequestID string
	Text      string

	// Final marks the last update of a successful assembly.
	Final bool

	// Truncated marks a final update forced by end of stream without a
	// "sources" or "done" event.
	Truncated bool

	// Err is set on the last update delivered by a Task that failed.
	Err error
}

// Result summarizes a finished assembly.
type Result struct {
	RequestID string
	Text      string
	Truncated bool

	// Events counts applied events. Malformed counts skipped data lines.
	Events    int
	Malformed int
}
