package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/fiekai/fiekchat/pkg/stream"
)

// FallbackReply replaces an assistant reply that failed before any text
// arrived.
const FallbackReply = "I'm having trouble reaching the model server. " +
	"Once your backend is running, I will be able to respond normally."

// sourceMarkers introduce the citation block appended to replies.
var sourceMarkers = []string{
	"---\n**Burimet:**",
	"---\n**Sources:**",
}

// StripSources drops the citation block from a reply so it is not sent back
// to the model as history.
func StripSources(content string) string {
	cut := len(content)
	for _, marker := range sourceMarkers {
		if i := strings.Index(content, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimRight(content[:cut], " \n")
}

// WithSources appends a citation block for sources to reply, in the form
// StripSources removes.
func WithSources(reply string, sources []string) string {
	if len(sources) == 0 {
		return reply
	}
	return reply + "\n\n" + sourceMarkers[1] + " " + strings.Join(sources, ", ")
}

// ErrorText turns a failed turn into a line suitable for the user.
func ErrorText(err error) string {
	var (
		cerr *stream.ConnectivityError
		serr *stream.ServerError
		terr *stream.TransportError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The chatbot server took too long to answer."
	case errors.As(err, &cerr):
		return "Cannot connect to the server. Please make sure the backend is running on " + cerr.URL
	case errors.As(err, &serr):
		if serr.Message != "" {
			return serr.Message
		}
		return "Sorry, I encountered an error. Please try again."
	case errors.As(err, &terr):
		return "The connection to the chatbot server was interrupted."
	default:
		return err.Error()
	}
}
