// Package cmdutil holds the settings and logger plumbing shared by the
// fiekchat subcommands.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/pkg/config"
	"github.com/fiekai/fiekchat/pkg/logger"
)

// ConnectionFlags are the registry keys every command talking to the
// chatbot server registers.
var ConnectionFlags = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
}

// ChatFlags are the registry keys of commands that send chat requests.
var ChatFlags = []string{
	config.FlagBaseURL,
	config.FlagTimeout,
	config.FlagStreaming,
	config.FlagSystemPrompt,
	config.FlagTemperature,
	config.FlagLanguage,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

// Settings resolves the effective config for cmd. Flags named by keys that
// were registered on cmd take precedence over FIEKCHAT_* environment
// variables, the config file and the defaults.
func Settings(cmd *cobra.Command, keys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	config.BindRegisteredFlags(v, cmd, config.Registry, keys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the config.toml path for cmd's --config-dir.
func ConfigPath(cmd *cobra.Command) (string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return "", err
	}
	return cfger.GetTarget(), nil
}

// Logger builds the command logger from --debug, --log-file and the [log]
// config section. Console output goes to stderr unless quiet is set, which
// full-screen commands use to keep the terminal clean. The returned close
// func releases the log file.
func Logger(cmd *cobra.Command, cfg *config.Config, quiet bool) (*slog.Logger, func() error, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	logFile, _ := cmd.Flags().GetString("log-file")

	noop := func() error { return nil }

	var loggers []*slog.Logger
	if !quiet {
		loggers = append(loggers, logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(cfg.Log.Pretty),
			logger.WithJSON(cfg.Log.JSON),
			logger.WithWriter(cmd.ErrOrStderr()),
		))
	}

	closeFn := noop
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("opening log file: %w", err)
		}
		closeFn = f.Close

		// The file always gets JSON at debug level.
		loggers = append(loggers, logger.New(
			logger.WithDebug(true),
			logger.WithJSON(true),
			logger.WithWriter(f),
		))
	}

	switch len(loggers) {
	case 0:
		return logger.Nop(), closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return logger.Multi(loggers...), closeFn, nil
	}
}

// OpenRecord opens path for raw stream recording. An empty path yields a nil
// writer.
func OpenRecord(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening record file: %w", err)
	}
	return f, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
