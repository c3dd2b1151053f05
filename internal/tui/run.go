package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive client and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
