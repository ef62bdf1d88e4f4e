package main

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pagetune/internal/relay"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/desertthunder/pagetune/internal/ui"
	"github.com/urfave/cli/v3"
)

// runnerPlayer adapts the runner's playback wiring to [ui.Player].
type runnerPlayer struct {
	runner *Runner
}

func (p runnerPlayer) Prepare(ctx context.Context) error {
	return p.runner.ensurePlayer(ctx)
}

func (p runnerPlayer) Play(ctx context.Context, trackIDs []string) (bool, error) {
	return p.runner.controller.Play(ctx, trackIDs)
}

// TUI launches the interactive terminal interface. Log lines are redirected
// to a file next to the database so they stay out of the rendered view.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}
	if err := r.requireContents(); err != nil {
		return err
	}

	if logger, err := shared.NewFileLogger(filepath.Join(filepath.Dir(r.config.Database.Path), "pagetune.log")); err == nil {
		r.SetLogger(logger)
	} else {
		r.logger.Warnf("failed to open TUI log file, logging to stderr %v", err)
	}

	authRelay := relay.New(r.coordinator, r.logger)
	model := ui.NewModel(ctx, r.coordinator, authRelay, r.producer, r.contents, runnerPlayer{runner: r})

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
