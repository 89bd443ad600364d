// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the FIEK chatbot as a tool.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/stream"
	"github.com/fiekai/fiekchat/pkg/utils"
)

// Asker answers one question outside any conversation. *shell.Shell
// implements it.
type Asker interface {
	Ask(ctx context.Context, question string, onUpdate func(stream.Update)) (stream.Result, error)
}

type Config struct {
	// Asker answers ask_fiek calls
	Asker Asker

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	logger    *slog.Logger
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask tool.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
		logger: logger.OrNop(c.Logger),
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fiekchat",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Asker == nil {
			return nil, errors.New("asker is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        askToolName,
			Description: askDescription,
		}, s.handleAsk)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Connect serves one session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// RunStdio serves a single client on stdin/stdout until it disconnects or
// ctx is done.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio")
	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
