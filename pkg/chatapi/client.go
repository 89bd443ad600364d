// Package chatapi is the HTTP client for the FIEK chatbot API.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/stream"
)

const (
	DefaultStreamPath     = "/api/chat/stream"
	DefaultChatPath       = "/api/chat"
	DefaultHealthPath     = "/api/health"
	DefaultInitializePath = "/api/initialize"

	// DefaultTimeout bounds a whole request, including reading a streamed
	// reply. Model responses can be slow.
	DefaultTimeout = 5 * time.Minute

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 * 1024
)

// Config holds the settings for a Client.
type Config struct {
	// BaseURL is the scheme and host of the chatbot server, e.g.
	// "http://localhost:5001".
	BaseURL string

	StreamPath     string
	ChatPath       string
	HealthPath     string
	InitializePath string

	Timeout time.Duration

	// SystemPrompt and Temperature are sent with each chat request when set.
	SystemPrompt string
	Temperature  *float64

	// Record, when set, receives a verbatim copy of every streamed body.
	Record io.Writer

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the chatbot server.
type Client struct {
	base   *url.URL
	config Config
	http   *http.Client
	logger *slog.Logger

	// mu guards the per-request options that SetOptions may change.
	mu           sync.RWMutex
	systemPrompt string
	temperature  *float64
}

// NewClient validates c and returns a Client.
func NewClient(c Config) (*Client, error) {
	if c.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", c.BaseURL)
	}

	if c.StreamPath == "" {
		c.StreamPath = DefaultStreamPath
	}
	if c.ChatPath == "" {
		c.ChatPath = DefaultChatPath
	}
	if c.HealthPath == "" {
		c.HealthPath = DefaultHealthPath
	}
	if c.InitializePath == "" {
		c.InitializePath = DefaultInitializePath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Timeout}
	}

	return &Client{
		base:         base,
		config:       c,
		http:         httpClient,
		logger:       logger.OrNop(c.Logger),
		systemPrompt: c.SystemPrompt,
		temperature:  c.Temperature,
	}, nil
}

// BaseURL returns the server URL the client targets.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetOptions replaces the system prompt and temperature used by later
// requests. In-flight requests are unaffected.
func (c *Client) SetOptions(systemPrompt string, temperature *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemPrompt = systemPrompt
	c.temperature = temperature
}

// Stream posts the conversation to the streaming endpoint and starts
// assembling the reply. Failures before the body starts, connectivity or a
// non-2xx status, are returned directly and no Task is started.
func (c *Client) Stream(ctx context.Context, messages []Message, opts ...stream.Option) (*stream.Task, error) {
	resp, err := c.post(ctx, c.config.StreamPath, messages)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, serverError(resp)
	}

	taskOpts := []stream.TaskOption{
		stream.WithAssemblerOptions(append([]stream.Option{stream.WithLogger(c.logger)}, opts...)...),
	}
	if c.config.Record != nil {
		taskOpts = append(taskOpts, stream.WithTee(c.config.Record))
	}

	task := stream.Start(ctx, resp.Body, taskOpts...)
	c.logger.Debug("stream started",
		"request_id", task.ID(),
		"status", resp.StatusCode,
	)

	return task, nil
}

// Chat posts the conversation to the plain endpoint and returns the whole
// reply at once.
func (c *Client) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	resp, err := c.post(ctx, c.config.ChatPath, messages)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if out.Error != "" {
		return nil, &stream.ServerError{Status: resp.StatusCode, Message: out.Error}
	}

	return &out, nil
}

// Health queries the server's health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.config.HealthPath), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverError(resp)
	}

	var out HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding health response: %w", err)
	}

	return &out, nil
}

// Initialize asks the server to set up its chatbot.
func (c *Client) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.config.InitializePath), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.base.JoinPath(path).String()
}

func (c *Client) post(ctx context.Context, path string, messages []Message) (*http.Response, error) {
	c.mu.RLock()
	reqBody := ChatRequest{
		Messages:     messages,
		SystemPrompt: c.systemPrompt,
		Temperature:  c.temperature,
	}
	c.mu.RUnlock()

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending chat request",
		"url", req.URL.String(),
		"message_count", len(messages),
	)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &stream.ConnectivityError{URL: c.BaseURL(), Err: err}
	}

	return resp, nil
}

// serverError builds a *stream.ServerError from a non-2xx response, using the
// body's "error" field when there is one.
func serverError(resp *http.Response) error {
	serr := &stream.ServerError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return serr
	}

	var body errorBody
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		serr.Message = body.Error
	}

	return serr
}
