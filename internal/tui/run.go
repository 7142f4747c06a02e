package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/scrub-db/internal/dump"
)

// RunScanBrowser shows report until the user quits or ctx is cancelled.
func RunScanBrowser(ctx context.Context, source string, report *dump.Report, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(
		NewScanBrowser(source, report),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("scan browser failed: %w", err)
	}
	return nil
}
