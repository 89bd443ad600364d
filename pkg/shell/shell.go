// Package shell runs chat turns for the fiekchat front ends. A Shell owns one
// Conversation and one chatapi.Client; the line REPL, the TUI and the MCP
// bridge all drive it.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fiekai/fiekchat/pkg/chatapi"
	"github.com/fiekai/fiekchat/pkg/config"
	"github.com/fiekai/fiekchat/pkg/conversation"
	"github.com/fiekai/fiekchat/pkg/eventstream"
	eventstreamutils "github.com/fiekai/fiekchat/pkg/eventstream/utils"
	"github.com/fiekai/fiekchat/pkg/eventstream/worker"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/stream"
	"github.com/fiekai/fiekchat/pkg/utils"
)

// ErrNoQuestion is returned by Retry when nothing has been asked yet.
var ErrNoQuestion = errors.New("nothing to retry")

// Config holds the collaborators of a Shell.
type Config struct {
	Client *chatapi.Client

	// Streaming selects the streaming endpoint over the plain one.
	Streaming bool

	// Language picks the welcome text. Welcome, when set, overrides it.
	Language conversation.Language
	Welcome  string

	// Events receives a turn-completed event per settled turn. Optional.
	Events *worker.Pool

	Logger *slog.Logger
}

// Shell runs turns against the chatbot server.
type Shell struct {
	client *chatapi.Client
	conv   *conversation.Conversation
	events *worker.Pool
	logger *slog.Logger

	mu        sync.Mutex
	streaming bool
	lang      conversation.Language
	welcome   string
	cancel    context.CancelFunc
}

// New returns a Shell with a fresh conversation.
func New(c Config) (*Shell, error) {
	if c.Client == nil {
		return nil, errors.New("shell requires a chat client")
	}

	lang := c.Language
	if lang.Code == "" {
		var err error
		if lang, err = conversation.LookupLanguage(conversation.DefaultLanguage); err != nil {
			return nil, err
		}
	}

	s := &Shell{
		client:    c.Client,
		events:    c.Events,
		logger:    logger.OrNop(c.Logger),
		streaming: c.Streaming,
		lang:      lang,
		welcome:   c.Welcome,
	}
	s.conv = conversation.New(s.welcomeText())
	return s, nil
}

// NewClient builds the chatbot client described by cfg. record, when
// non-nil, receives the raw bytes of every streamed reply.
func NewClient(cfg *config.Config, l *slog.Logger, record io.Writer) (*chatapi.Client, error) {
	timeout, err := cfg.API.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	client, err := chatapi.NewClient(chatapi.Config{
		BaseURL:        cfg.API.BaseURL,
		StreamPath:     cfg.API.StreamPath,
		ChatPath:       cfg.API.ChatPath,
		HealthPath:     cfg.API.HealthPath,
		InitializePath: cfg.API.InitializePath,
		Timeout:        timeout,
		SystemPrompt:   cfg.Chat.SystemPrompt,
		Temperature:    cfg.Chat.Temperature,
		Record:         record,
		Logger:         logger.OrNop(l),
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}
	return client, nil
}

// FromConfig builds a Shell, its client and its event pool from cfg. record,
// when non-nil, receives the raw bytes of every streamed reply.
func FromConfig(cfg *config.Config, l *slog.Logger, record io.Writer) (*Shell, error) {
	l = logger.OrNop(l)

	client, err := NewClient(cfg, l, record)
	if err != nil {
		return nil, err
	}

	lang, err := conversation.LookupLanguage(cfg.Chat.Language)
	if err != nil {
		return nil, err
	}

	publisher, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.EventStream.Provider,
		Brokers:      cfg.EventStream.BrokerList(),
		Topic:        cfg.EventStream.Topic,
		Logger:       l,
	})
	if err != nil {
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{Publisher: publisher, Logger: l})
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	return New(Config{
		Client:    client,
		Streaming: cfg.Chat.StreamingEnabled(),
		Language:  lang,
		Welcome:   cfg.Chat.Welcome,
		Events:    pool,
		Logger:    l,
	})
}

// Conversation returns the history the shell fills.
func (s *Shell) Conversation() *conversation.Conversation {
	return s.conv
}

// Client returns the chat client.
func (s *Shell) Client() *chatapi.Client {
	return s.client
}

// Language returns the active interface language.
func (s *Shell) Language() conversation.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// SetLanguage switches the interface language. A conversation that has not
// started yet gets the new welcome message.
func (s *Shell) SetLanguage(code string) error {
	lang, err := conversation.LookupLanguage(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lang = lang
	welcome := s.welcomeText()
	s.mu.Unlock()

	s.conv.SetWelcome(welcome)
	return nil
}

// Streaming reports whether turns use the streaming endpoint.
func (s *Shell) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Reconfigure applies a reloaded config file to later turns. It has the
// signature config.Watch expects.
func (s *Shell) Reconfigure(cfg *config.Config, err error) {
	if err != nil {
		s.logger.Warn("ignoring config reload", logger.Err(err))
		return
	}

	s.client.SetOptions(cfg.Chat.SystemPrompt, cfg.Chat.Temperature)

	s.mu.Lock()
	s.streaming = cfg.Chat.StreamingEnabled()
	s.mu.Unlock()

	s.logger.Info("config reloaded",
		"streaming", cfg.Chat.StreamingEnabled(),
		"system_prompt_set", cfg.Chat.SystemPrompt != "",
		"temperature_set", cfg.Chat.Temperature != nil,
	)
}

// Submit runs one turn for input. onUpdate, when set, sees every stream
// update in order. The returned message is the committed reply, or the
// failed placeholder together with the error that ended the turn.
func (s *Shell) Submit(ctx context.Context, input string, onUpdate func(stream.Update)) (conversation.Message, error) {
	turn, err := s.conv.Begin(input)
	if err != nil {
		return conversation.Message{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	streaming := s.streaming
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	apply := func(u stream.Update) {
		s.conv.Apply(u)
		if onUpdate != nil {
			onUpdate(u)
		}
	}

	res, err := s.exchange(ctx, turn.ID, turn.History, streaming, apply)
	s.publish(turn.ID, turn.Question, turn.Started, streaming, res, err)

	if err != nil {
		s.logger.Debug("turn failed", "request_id", turn.ID, logger.Err(err))
		msg, ferr := s.conv.Fail(err)
		if ferr != nil {
			return msg, ferr
		}
		return msg, err
	}

	if res.Truncated {
		s.logger.Warn("reply ended without a terminal event", "request_id", turn.ID)
	}

	return s.conv.Commit(res.Text)
}

// Retry resubmits the most recent question.
func (s *Shell) Retry(ctx context.Context, onUpdate func(stream.Update)) (conversation.Message, error) {
	q, ok := s.conv.LastQuestion()
	if !ok {
		return conversation.Message{}, ErrNoQuestion
	}
	return s.Submit(ctx, q, onUpdate)
}

// Cancel stops the turn in flight, if any.
func (s *Shell) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Ask answers a single question outside the conversation history.
func (s *Shell) Ask(ctx context.Context, question string, onUpdate func(stream.Update)) (stream.Result, error) {
	started := time.Now()
	streaming := s.Streaming()

	id := uuid.NewString()

	res, err := s.exchange(ctx, id, []chatapi.Message{{Role: chatapi.RoleUser, Content: question}}, streaming, onUpdate)
	s.publish(id, question, started, streaming, res, err)
	return res, err
}

// Close drains pending turn events and closes the publisher.
func (s *Shell) Close() error {
	if s.events == nil {
		return nil
	}
	return s.events.Close()
}

// exchange sends history and waits for the complete reply.
func (s *Shell) exchange(ctx context.Context, id string, history []chatapi.Message, streaming bool, onUpdate func(stream.Update)) (stream.Result, error) {
	if !streaming {
		resp, err := s.client.Chat(ctx, history)
		if err != nil {
			return stream.Result{RequestID: id}, err
		}
		text := conversation.WithSources(resp.Reply, resp.Sources)
		if onUpdate != nil {
			onUpdate(stream.Update{RequestID: id, Text: text, Final: true})
		}
		return stream.Result{RequestID: id, Text: text}, nil
	}

	task, err := s.client.Stream(ctx, history, stream.WithRequestID(id))
	if err != nil {
		return stream.Result{RequestID: id}, err
	}

	for u := range task.Updates() {
		if onUpdate != nil {
			onUpdate(u)
		}
	}
	return task.Wait()
}

func (s *Shell) publish(id, question string, started time.Time, streaming bool, res stream.Result, err error) {
	if s.events == nil {
		return
	}

	meta := eventstream.TurnMeta{
		RequestID:   id,
		Streaming:   streaming,
		Question:    question,
		Reply:       res.Text,
		Status:      eventstream.StatusOK,
		Truncated:   res.Truncated,
		Malformed:   res.Malformed,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
	if err != nil {
		meta.Status = eventstream.StatusFailed
		meta.Error = err.Error()
		if partial := stream.PartialText(err); len(partial) > len(meta.Reply) {
			meta.Reply = partial
		}
	}

	source := eventstream.EventSource{
		Client:  "fiekchat",
		Version: utils.Version,
		BaseURL: s.client.BaseURL(),
	}
	s.events.Enqueue(worker.Job{Event: eventstream.NewTurnCompletedEvent(source, meta)})
}

// welcomeText resolves the welcome message. s.mu must be held or s not yet
// shared.
func (s *Shell) welcomeText() string {
	if s.welcome != "" {
		return s.welcome
	}
	return s.lang.Welcome
}
