package stream

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when chunks are fed to an Assembler after end of
// stream or after it was aborted.
var ErrClosed = errors.New("assembler is closed")

// ConnectivityError means the chat server could not be reached at all, so no
// assembly was started.
type ConnectivityError struct {
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach the chatbot server at %s: %v", e.URL, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ServerError is a failure reported by the server, either as a non-2xx
// response or as an "error" event in the stream. Partial holds the text that
// had already been assembled, which stays visible to the user.
type ServerError struct {
	// Status is the HTTP status code, or 0 for an in-stream error event.
	Status  int
	Message string
	Partial string
}

func (e *ServerError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Status != 0:
		return fmt.Sprintf("Backend error: %d", e.Status)
	default:
		return "the chatbot server reported an error"
	}
}

// MalformedRecordError describes a data line whose payload could not be
// parsed. It never aborts an assembly; it is logged and counted.
type MalformedRecordError struct {
	Line string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed stream record %q: %v", e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// TransportError is a failure of the response body after the stream started,
// including cancellation. Updates already delivered are not revoked.
type TransportError struct {
	Partial string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream interrupted: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsConnectivity reports whether err is or wraps a *ConnectivityError.
func IsConnectivity(err error) bool {
	var target *ConnectivityError
	return errors.As(err, &target)
}

// IsServer reports whether err is or wraps a *ServerError.
func IsServer(err error) bool {
	var target *ServerError
	return errors.As(err, &target)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// PartialText returns the text assembled before err ended the stream, if err
// carries any.
func PartialText(err error) string {
	var serr *ServerError
	if errors.As(err, &serr) {
		return serr.Partial
	}

	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.Partial
	}

	return ""
}
