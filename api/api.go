package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/fiekai/fiekchat/api/mcp"
	"github.com/fiekai/fiekchat/pkg/logger"
)

// Server is the HTTP front of the MCP bridge.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server serving mcpServer under config.MCPPath.
func NewServer(config Config, mcpServer *mcp.Server, l *slog.Logger) (*Server, error) {
	if mcpServer == nil {
		return nil, errors.New("mcp server is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		logger: logger.OrNop(l),
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.All(config.mcpPath(), adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp_path", s.config.mcpPath(),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
