package eventstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNilTurnEvent is returned by publishers handed a nil event.
	ErrNilTurnEvent = errors.New("nil turn event")

	// ErrInvalidTurnEvent wraps the reason an event cannot be published.
	ErrInvalidTurnEvent = errors.New("invalid turn event")
)

// Publisher sends completed turns to an event stream backend. PublishTurn may
// be called from several goroutines.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnCompletedEvent) error
	Close() error
}

// Validate checks that event carries what consumers key on.
func Validate(event *TurnCompletedEvent) error {
	switch {
	case event == nil:
		return ErrNilTurnEvent
	case event.SchemaVersion != SchemaVersionV1:
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidTurnEvent, event.SchemaVersion)
	case event.EventID == "":
		return fmt.Errorf("%w: missing event id", ErrInvalidTurnEvent)
	case event.Turn.RequestID == "":
		return fmt.Errorf("%w: missing request id", ErrInvalidTurnEvent)
	}
	return nil
}
