// Package mcpcmder provides the mcp command, which exposes the chatbot to MCP
// clients as the ask_fiek tool.
package mcpcmder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/api"
	apimcp "github.com/fiekai/fiekchat/api/mcp"
	"github.com/fiekai/fiekchat/cmd/fiekchat/cmdutil"
	"github.com/fiekai/fiekchat/pkg/config"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/shell"
)

const mcpLongDesc string = `Expose the FIEK AI Chatbot to MCP clients.

Registers one tool, ask_fiek, that sends a question to the chatbot and returns
the complete reply. By default the server speaks MCP over stdin and stdout, so
an MCP client can launch it directly. With --listen it serves streamable HTTP
on /mcp instead.

Examples:
  fiekchat mcp
  fiekchat mcp --listen :8765 --base-url https://fiek-ai-chatbot.onrender.com`

const mcpShortDesc string = "Serve the chatbot as an MCP tool"

type mcpCommander struct {
	baseURL       string
	timeout       string
	streaming     bool
	systemPrompt  string
	temperature   string
	language      string
	eventProvider string
	eventBrokers  string
	eventTopic    string
	listen        string

	logger *slog.Logger
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := append([]string{config.FlagMCPListen}, cmdutil.ChatFlags...)
			cfg, err := cmdutil.Settings(cmd, keys)
			if err != nil {
				return err
			}

			l, closeLog, err := cmdutil.Logger(cmd, cfg, false)
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = l

			ctx, stop := cmdutil.SignalContext(cmd.Context())
			defer stop()

			return cmder.run(ctx, cfg)
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagMCPListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Registry, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.Registry, config.FlagStreaming, &cmder.streaming)
	config.AddStringFlag(cmd, config.Registry, config.FlagSystemPrompt, &cmder.systemPrompt)
	config.AddStringFlag(cmd, config.Registry, config.FlagTemperature, &cmder.temperature)
	config.AddStringFlag(cmd, config.Registry, config.FlagLanguage, &cmder.language)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventTopic, &cmder.eventTopic)

	return cmd
}

func (c *mcpCommander) run(ctx context.Context, cfg *config.Config) error {
	sh, err := shell.FromConfig(cfg, c.logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := sh.Close(); err != nil {
			c.logger.Warn("closing event publisher", logger.Err(err))
		}
	}()

	mcpServer, err := apimcp.NewServer(apimcp.Config{
		Asker:  sh,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	if cfg.MCP.Listen == "" {
		return mcpServer.RunStdio(ctx)
	}

	server, err := api.NewServer(api.Config{ListenAddr: cfg.MCP.Listen}, mcpServer, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down MCP server")
		return server.Shutdown()
	}
}
