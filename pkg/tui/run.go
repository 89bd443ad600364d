package tui

import (
	"context"
	"errors"

	bubbletea "github.com/charmbracelet/bubbletea"
)

// Run shows the chat screen until the user quits or ctx is done.
func Run(ctx context.Context, s Submitter) error {
	program := bubbletea.NewProgram(newChatModel(ctx, s),
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)

	_, err := program.Run()
	if errors.Is(err, bubbletea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
