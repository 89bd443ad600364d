// Package configcmder provides the config command for managing persistent
// fiekchat configuration stored in the .fiekchat/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/pkg/cliui"
)

const configLongDesc string = `Manage persistent fiekchat configuration.

Configuration is stored as config.toml in the .fiekchat/ directory and provides
default values for command flags. CLI flags and FIEKCHAT_* environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.base_url, api.stream_path, api.chat_path, api.health_path,
  api.initialize_path, api.timeout,
  chat.streaming, chat.system_prompt, chat.temperature, chat.language, chat.welcome,
  log.json, log.pretty,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  mcp.listen

Use subcommands to manage configuration values:
  fiekchat config init --preset render    Write a config for a deployment
  fiekchat config set <key> <value>       Set a configuration value
  fiekchat config get <key>               Get a configuration value
  fiekchat config list                    List all configuration values

Examples:
  fiekchat config set api.base_url https://fiek-ai-chatbot.onrender.com
  fiekchat config set chat.temperature 0.3
  fiekchat config get chat.language
  fiekchat config list`

const configShortDesc string = "Manage persistent fiekchat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
