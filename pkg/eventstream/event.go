// Package eventstream defines the turn events fiekchat emits after each
// chat exchange and the Publisher interface the backends implement.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCompleted is emitted after a chat turn settles, whether it
	// succeeded or failed.
	EventTypeTurnCompleted = "fiekchat.turn.completed"
)

// Turn outcome values for TurnMeta.Status.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// TurnCompletedEvent is a transport-neutral event payload for a settled turn.
type TurnCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies the client and server that produced the turn.
type EventSource struct {
	Client  string `json:"client"`
	Version string `json:"version,omitempty"`
	BaseURL string `json:"base_url"`
}

// TurnMeta describes one question and the reply it produced.
type TurnMeta struct {
	RequestID   string    `json:"request_id"`
	Streaming   bool      `json:"streaming"`
	Question    string    `json:"question"`
	Reply       string    `json:"reply"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Truncated   bool      `json:"truncated,omitempty"`
	Malformed   int       `json:"malformed,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// NewTurnCompletedEvent stamps turn with a fresh event id and emit time.
// DurationMs is derived from the turn's start and completion times.
func NewTurnCompletedEvent(source EventSource, turn TurnMeta) *TurnCompletedEvent {
	if !turn.StartedAt.IsZero() && !turn.CompletedAt.IsZero() {
		turn.DurationMs = turn.CompletedAt.Sub(turn.StartedAt).Milliseconds()
	}

	return &TurnCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
	}
}
