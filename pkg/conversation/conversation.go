// Package conversation holds the chat history shown by the shells.
//
// A Conversation starts with a welcome message from the assistant. Each user
// submission adds the user's message and an assistant placeholder that is
// filled in by stream updates and then committed, or replaced by a fallback
// when the request fails. Only one turn may be in flight at a time.
package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fiekai/fiekchat/pkg/chatapi"
	"github.com/fiekai/fiekchat/pkg/stream"
)

var (
	// ErrBusy is returned by Begin while a turn is in flight.
	ErrBusy = errors.New("a reply is still in progress")

	// ErrEmptyInput is returned by Begin for blank input.
	ErrEmptyInput = errors.New("message is empty")

	// ErrNoTurn is returned when there is no turn in flight.
	ErrNoTurn = errors.New("no reply in progress")
)

// Status is the last known reachability of the model server.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Message is one entry of the displayed history.
type Message struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time

	// IsStreaming is true while the assistant placeholder is being filled.
	IsStreaming bool

	// Failed marks an assistant reply whose request did not complete.
	Failed bool
}

// Turn identifies the in-flight exchange started by Begin.
type Turn struct {
	// ID is the assistant placeholder's message id.
	ID string

	// Question is the user's input.
	Question string

	// History is the request payload: every prior message except system
	// turns and failed replies, followed by the new user message.
	History []chatapi.Message

	Started time.Time
}

// Conversation is the single history owned by a shell. Methods are safe for
// concurrent use so a renderer can read while a turn is being filled.
type Conversation struct {
	mu       sync.Mutex
	now      func() time.Time
	welcome  string
	messages []Message
	pending  string
	status   Status
	lastErr  string
}

// New returns a Conversation holding only the welcome message.
func New(welcome string) *Conversation {
	c := &Conversation{
		now:     time.Now,
		welcome: welcome,
		status:  StatusUnknown,
	}
	c.reset()
	return c
}

func (c *Conversation) reset() {
	c.messages = c.messages[:0]
	if c.welcome != "" {
		c.messages = append(c.messages, Message{
			ID:        "welcome",
			Role:      chatapi.RoleAssistant,
			Content:   c.welcome,
			Timestamp: c.now(),
		})
	}
	c.pending = ""
	c.lastErr = ""
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Busy reports whether a turn is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != ""
}

// Status returns the reachability observed on the last turn.
func (c *Conversation) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the user-facing text of the last failure, or "".
func (c *Conversation) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetWelcome changes the welcome message. It takes effect immediately when
// the history holds nothing else, otherwise on the next Clear.
func (c *Conversation) SetWelcome(welcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.welcome = welcome
	if c.pending == "" && len(c.messages) <= 1 {
		c.reset()
	}
}

// Begin records the user's input and an empty assistant placeholder.
func (c *Conversation) Begin(input string) (Turn, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Turn{}, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != "" {
		return Turn{}, ErrBusy
	}

	history := c.history()
	history = append(history, chatapi.Message{Role: chatapi.RoleUser, Content: input})

	now := c.now()
	c.messages = append(c.messages,
		Message{
			ID:        uuid.NewString(),
			Role:      chatapi.RoleUser,
			Content:   input,
			Timestamp: now,
		},
		Message{
			ID:          uuid.NewString(),
			Role:        chatapi.RoleAssistant,
			Timestamp:   now,
			IsStreaming: true,
		},
	)

	c.pending = c.messages[len(c.messages)-1].ID
	c.lastErr = ""

	return Turn{
		ID:       c.pending,
		Question: input,
		History:  history,
		Started:  now,
	}, nil
}

// Apply copies a stream update into the placeholder.
func (c *Conversation) Apply(u stream.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.placeholder()
	if msg == nil {
		return
	}

	// Text only grows within one assembly.
	if len(u.Text) >= len(msg.Content) {
		msg.Content = u.Text
	}
	if u.Final {
		msg.IsStreaming = false
	}
}

// Commit finalizes the placeholder with the complete reply.
func (c *Conversation) Commit(text string) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.placeholder()
	if msg == nil {
		return Message{}, ErrNoTurn
	}

	msg.Content = text
	msg.IsStreaming = false
	c.pending = ""
	c.status = StatusOnline
	return *msg, nil
}

// Fail ends the turn with err. Text that already arrived stays visible;
// an empty reply is replaced by FallbackReply.
func (c *Conversation) Fail(err error) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.placeholder()
	if msg == nil {
		return Message{}, ErrNoTurn
	}

	if partial := stream.PartialText(err); len(partial) > len(msg.Content) {
		msg.Content = partial
	}
	if msg.Content == "" {
		msg.Content = FallbackReply
	}

	msg.IsStreaming = false
	msg.Failed = true
	c.pending = ""
	c.lastErr = ErrorText(err)

	if stream.IsConnectivity(err) || stream.IsServer(err) {
		c.status = StatusOffline
	}

	return *msg, nil
}

// Notice adds a system message. System messages are shown but never sent
// to the server.
func (c *Conversation) Notice(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{
		ID:        uuid.NewString(),
		Role:      chatapi.RoleSystem,
		Content:   text,
		Timestamp: c.now(),
	})
}

// Clear drops everything except the welcome message.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// LastQuestion returns the most recent user input, for retrying a turn.
func (c *Conversation) LastQuestion() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == chatapi.RoleUser {
			return c.messages[i].Content, true
		}
	}
	return "", false
}

// placeholder returns the in-flight assistant message. c.mu must be held.
func (c *Conversation) placeholder() *Message {
	if c.pending == "" {
		return nil
	}
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == c.pending {
			return &c.messages[i]
		}
	}
	return nil
}

// history builds the request payload from the committed messages. c.mu must
// be held.
func (c *Conversation) history() []chatapi.Message {
	out := make([]chatapi.Message, 0, len(c.messages)+1)
	for i, msg := range c.messages {
		if msg.Role == chatapi.RoleSystem {
			continue
		}

		// A failed reply and the question that caused it are not context.
		if msg.Failed {
			continue
		}
		if msg.Role == chatapi.RoleUser && i+1 < len(c.messages) && c.messages[i+1].Failed {
			continue
		}

		content := msg.Content
		if msg.Role == chatapi.RoleAssistant {
			content = StripSources(content)
		}

		out = append(out, chatapi.Message{Role: msg.Role, Content: content})
	}
	return out
}
