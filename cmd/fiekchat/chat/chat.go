// Package chatcmder provides the chat command, an interactive conversation
// with the FIEK AI Chatbot.
package chatcmder

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/cmd/fiekchat/cmdutil"
	"github.com/fiekai/fiekchat/pkg/config"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/shell"
	"github.com/fiekai/fiekchat/pkg/tui"
)

const chatLongDesc string = `Start an interactive chat with the FIEK AI Chatbot.

Replies stream in as they are generated. Ctrl+C stops a reply in progress;
pressing it again with no reply running exits. The conversation history is
sent with every message and lives only as long as the session.

Commands:
  /suggest          List suggested questions; type a number to ask one
  /retry            Ask the last question again
  /lang <en|sq>     Switch the interface language
  /clear            Start a new conversation
  /help             Show the commands
  /exit             Quit

Edits to config.toml (system_prompt, temperature, streaming) apply from the
next message. Flags given on the command line keep precedence.

Examples:
  fiekchat chat
  fiekchat chat --tui --lang sq
  fiekchat chat --stream=false --system-prompt "Answer briefly."`

const chatShortDesc string = "Chat with the FIEK AI Chatbot"

// reloadFlags are the flags whose explicit values survive a config reload.
var reloadFlags = []string{config.FlagSystemPrompt, config.FlagTemperature, config.FlagStreaming}

type chatCommander struct {
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
	tui           bool
	watch         bool

	configPath string
	changed    map[string]bool

	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.Settings(cmd, cmdutil.ChatFlags)
			if err != nil {
				return err
			}

			// Log lines would tear the full-screen view, so the TUI only logs
			// to --log-file.
			l, closeLog, err := cmdutil.Logger(cmd, cfg, cmder.tui)
			if err != nil {
				return err
			}
			defer closeLog()

			cmder.configPath, err = cmdutil.ConfigPath(cmd)
			if err != nil {
				return err
			}

			cmder.changed = make(map[string]bool, len(reloadFlags))
			for _, name := range reloadFlags {
				cmder.changed[name] = cmd.Flags().Changed(config.Registry[name].Name)
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.logger = l
			return cmder.run(cmd.Context(), cfg)
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
	cmd.Flags().BoolVar(&cmder.tui, "tui", false, "Use the full-screen chat view")
	cmd.Flags().BoolVar(&cmder.watch, "watch", true, "Apply config.toml edits while chatting")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

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

	if c.watch && c.configPath != "" {
		go func() {
			if err := config.Watch(ctx, c.configPath, c.reload(sh, cfg)); err != nil {
				c.logger.Warn("config watch stopped", logger.Err(err))
			}
		}()
	}

	if c.tui {
		ctx, stop := cmdutil.SignalContext(ctx)
		defer stop()
		return tui.Run(ctx, sh)
	}

	stopSignals := c.handleInterrupts(sh, cancel)
	defer stopSignals()

	return newREPL(sh, c.in, c.out, c.logger).run(ctx)
}

// reload returns the config.Watch callback. Values given as flags win over
// the reloaded file.
func (c *chatCommander) reload(sh *shell.Shell, startup *config.Config) func(*config.Config, error) {
	return func(cfg *config.Config, err error) {
		if err == nil {
			if c.changed[config.FlagSystemPrompt] {
				cfg.Chat.SystemPrompt = startup.Chat.SystemPrompt
			}
			if c.changed[config.FlagTemperature] {
				cfg.Chat.Temperature = startup.Chat.Temperature
			}
			if c.changed[config.FlagStreaming] {
				cfg.Chat.Streaming = startup.Chat.Streaming
			}
		}
		sh.Reconfigure(cfg, err)
	}
}

// handleInterrupts makes Ctrl+C stop the reply in flight, or quit when there
// is none.
func (c *chatCommander) handleInterrupts(sh *shell.Shell, quit context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigs:
				if sh.Conversation().Busy() {
					sh.Cancel()
					continue
				}
				quit()
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
