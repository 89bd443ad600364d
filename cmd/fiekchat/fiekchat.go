// Package fiekchatcmder
package fiekchatcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/fiekai/fiekchat/cmd/fiekchat/ask"
	chatcmder "github.com/fiekai/fiekchat/cmd/fiekchat/chat"
	configcmder "github.com/fiekai/fiekchat/cmd/fiekchat/config"
	healthcmder "github.com/fiekai/fiekchat/cmd/fiekchat/health"
	mcpcmder "github.com/fiekai/fiekchat/cmd/fiekchat/mcp"
	versioncmder "github.com/fiekai/fiekchat/cmd/version"
	"github.com/fiekai/fiekchat/pkg/cliui"
)

const fiekchatLongDesc string = `fiekchat is a terminal client for the FIEK AI Chatbot.

Talk to the assistant of the Faculty of Electrical and Computer Engineering:
  fiekchat chat           Start an interactive chat (--tui for full screen)
  fiekchat ask "..."      Ask a single question
  fiekchat health         Check the chatbot server
  fiekchat mcp            Expose the chatbot as an MCP tool
  fiekchat config         Manage .fiekchat/config.toml`

const fiekchatShortDesc string = "fiekchat - FIEK AI Chatbot client"

func NewFiekchatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fiekchat",
		Short:        fiekchatShortDesc,
		Long:         fiekchatLongDesc,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cliui.ConfigureColor(cmd.OutOrStdout())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default ./.fiekchat or ~/.fiekchat)")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON debug logs to this file")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(healthcmder.NewHealthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
