package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/purelyd/internal/shared"
	"github.com/desertthunder/purelyd/internal/ui"
	"github.com/urfave/cli/v3"
)

// setupTUI redirects logs to the configured file before building the resolver.
func (r *Runner) setupTUI(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.ensureConfig(cmd); err != nil {
		return ctx, err
	}

	path := r.config.Logging.TUIFile
	if path == "" {
		path = shared.DefaultConfig().Logging.TUIFile
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return ctx, fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	return r.setup(ctx, cmd)
}

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.resolver == nil {
		return fmt.Errorf("%w: resolver not initialized", shared.ErrMissingConfig)
	}

	model := ui.NewModel(ctx, r.resolver)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
