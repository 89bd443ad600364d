// Package healthcmder provides the health command, which checks that the
// chatbot server is reachable and its chatbot initialized.
package healthcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/cmd/fiekchat/cmdutil"
	"github.com/fiekai/fiekchat/pkg/chatapi"
	"github.com/fiekai/fiekchat/pkg/cliui"
	"github.com/fiekai/fiekchat/pkg/config"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/shell"
)

const healthLongDesc string = `Check the chatbot server.

Queries the health endpoint and reports the server status and whether its
chatbot is initialized. With --initialize, an uninitialized chatbot is set up
through the initialize endpoint and checked again.

Examples:
  fiekchat health
  fiekchat health --base-url https://fiek-ai-chatbot.onrender.com --initialize`

const healthShortDesc string = "Check the chatbot server"

type healthCommander struct {
	baseURL    string
	timeout    string
	initialize bool

	out    io.Writer
	logger *slog.Logger
}

func NewHealthCmd() *cobra.Command {
	cmder := &healthCommander{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: healthShortDesc,
		Long:  healthLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.Settings(cmd, cmdutil.ConnectionFlags)
			if err != nil {
				return err
			}

			l, closeLog, err := cmdutil.Logger(cmd, cfg, false)
			if err != nil {
				return err
			}
			defer closeLog()

			cmder.out = cmd.OutOrStdout()
			cmder.logger = l
			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.initialize, "initialize", false, "Initialize the chatbot when it is not ready")

	return cmd
}

func (c *healthCommander) run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := shell.NewClient(cfg, c.logger, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.KeyValue("Server", client.BaseURL()))

	status, err := c.check(ctx, client)
	if err != nil {
		return err
	}

	if !status.ChatbotInitialized && c.initialize {
		err := cliui.Step(c.out, "Initializing chatbot", func() error {
			return client.Initialize(ctx)
		})
		if err != nil {
			return fmt.Errorf("initializing chatbot: %w", err)
		}

		status, err = c.check(ctx, client)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "\n  %s\n  %s\n\n",
		cliui.KeyValue("status", status.Status),
		cliui.KeyValue("chatbot_initialized", strconv.FormatBool(status.ChatbotInitialized)),
	)

	if !status.Healthy() {
		return fmt.Errorf("chatbot is not initialized (status %q)", status.Status)
	}
	return nil
}

func (c *healthCommander) check(ctx context.Context, client *chatapi.Client) (*chatapi.HealthStatus, error) {
	var status *chatapi.HealthStatus
	err := cliui.Step(c.out, "Checking health", func() error {
		var err error
		status, err = client.Health(ctx)
		return err
	})
	if err != nil {
		c.logger.Debug("health check failed", "base_url", client.BaseURL(), logger.Err(err))
		return nil, fmt.Errorf("checking health: %w", err)
	}
	return status, nil
}
