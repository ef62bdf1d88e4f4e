package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin runs the full authorization code flow: browser consent, callback
// capture and token exchange, blocking until the user finishes or cancels.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}

	r.logger.Info("starting authorization, check your browser")

	if err := r.coordinator.Authenticate(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writePlain("✓ Authentication successful\n")
}

// AuthStatus reports the coordinator's current state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}

	if r.coordinator.IsAuthenticated() {
		return r.writePlain("✓ Authenticated (%s)\n", r.coordinator.State())
	}

	return r.writePlain("✗ Not authenticated (%s), run 'pagetune auth login'\n", r.coordinator.State())
}

// AuthLogout clears stored credentials. Safe to run when already logged out.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}

	if err := r.coordinator.Logout(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	return r.writePlain("✓ Logged out\n")
}
