// Package askcmder provides the ask command, which sends one question to the
// chatbot and prints the reply.
package askcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/cmd/fiekchat/cmdutil"
	"github.com/fiekai/fiekchat/pkg/cliui"
	"github.com/fiekai/fiekchat/pkg/config"
	"github.com/fiekai/fiekchat/pkg/conversation"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/shell"
)

const askLongDesc string = `Ask the FIEK AI Chatbot a single question.

The reply is printed as it streams in. With --stream=false the plain chat
endpoint is used and, on a terminal, the reply is rendered as markdown.
The question is sent on its own, without conversation history.

Examples:
  fiekchat ask "What study programs does FIEK offer?"
  fiekchat ask --stream=false --lang sq "Kur fillon afati i provimeve?"`

const askShortDesc string = "Ask a single question"

type askCommander struct {
	baseURL       string
	timeout       string
	streaming     bool
	systemPrompt  string
	temperature   string
	language      string
	eventProvider string
	eventBrokers  string
	eventTopic    string
	record        string
	raw           bool

	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.Settings(cmd, cmdutil.ChatFlags)
			if err != nil {
				return err
			}

			l, closeLog, err := cmdutil.Logger(cmd, cfg, false)
			if err != nil {
				return err
			}
			defer closeLog()

			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			cmder.logger = l

			ctx, stop := cmdutil.SignalContext(cmd.Context())
			defer stop()

			return cmder.run(ctx, cfg, strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Registry, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.Registry, config.FlagStreaming, &cmder.streaming)
	config.AddStringFlag(cmd, config.Registry, config.FlagSystemPrompt, &cmder.systemPrompt)
	config.AddStringFlag(cmd, config.Registry, config.FlagTemperature, &cmder.temperature)
	config.AddStringFlag(cmd, config.Registry, config.FlagLanguage, &cmder.language)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventTopic, &cmder.eventTopic)
	cmd.Flags().StringVar(&cmder.record, "record", "", "Append the raw streamed response bytes to this file")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print plain replies without markdown rendering")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cfg *config.Config, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return conversation.ErrEmptyInput
	}

	record, err := cmdutil.OpenRecord(c.record)
	if err != nil {
		return err
	}
	if record != nil {
		defer record.Close()
	}

	sh, err := shell.FromConfig(cfg, c.logger, record)
	if err != nil {
		return err
	}
	defer func() {
		if err := sh.Close(); err != nil {
			c.logger.Warn("closing event publisher", logger.Err(err))
		}
	}()

	streaming := sh.Streaming()
	printer := cmdutil.NewDeltaPrinter(c.out)

	onUpdate := printer.Print
	if !streaming {
		onUpdate = nil
	}

	res, err := sh.Ask(ctx, question, onUpdate)
	if printer.Printed() {
		fmt.Fprintln(c.out)
	}
	if err != nil {
		fmt.Fprintf(c.errOut, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(conversation.ErrorText(err)))
		return err
	}

	if !streaming {
		fmt.Fprintln(c.out, c.render(res.Text))
	}

	if res.Truncated {
		fmt.Fprintln(c.errOut, cliui.DimStyle.Render("(the reply ended before the server finished it)"))
	}
	return nil
}

// render formats a complete reply, using markdown on a terminal.
func (c *askCommander) render(text string) string {
	if c.raw || !cliui.IsTerminal(c.out) {
		return text
	}

	rendered, err := cliui.RenderMarkdown(text, 0)
	if err != nil {
		c.logger.Debug("markdown rendering failed", logger.Err(err))
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
