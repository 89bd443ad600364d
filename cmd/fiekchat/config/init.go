package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fiekai/fiekchat/pkg/cliui"
	"github.com/fiekai/fiekchat/pkg/config"
)

const initLongDesc string = `Write a config.toml for a known deployment.

Presets:
  local     a chatbot server on http://localhost:5001
  render    the hosted deployment on Render

An existing config.toml is kept unless --force is given.

Examples:
  fiekchat config init
  fiekchat config init --preset render --force`

const initShortDesc string = "Write a config.toml from a preset"

type initCommander struct {
	preset string
	force  bool
}

func newInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "local", "Deployment preset (local, render)")
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(w io.Writer, configDir string) error {
	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	_, err = os.Stat(target)
	switch {
	case err == nil && !c.force:
		fmt.Fprintf(w, "Already initialized: %s\n", target)
		return nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Wrote %s preset to %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(c.preset),
		cliui.DimStyle.Render(target),
	)
	return nil
}
