package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

// ensurePlayer resolves a valid access token and runs the playback bridge's
// initialization so transport commands have a device to target.
func (r *Runner) ensurePlayer(ctx context.Context) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}
	if !r.coordinator.IsAuthenticated() {
		return fmt.Errorf("%w: run 'pagetune auth login'", shared.ErrNotAuthenticated)
	}

	token, err := r.coordinator.ValidAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}

	return r.bridge.Initialize(ctx, token)
}

// Play starts playback of the given track IDs, or queues them until a device
// becomes available.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	trackIDs := cmd.Args().Slice()
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: at least one track id", shared.ErrMissingArgument)
	}

	if err := r.ensurePlayer(ctx); err != nil {
		return err
	}

	queued, err := r.controller.Play(ctx, trackIDs)
	if err != nil {
		return err
	}

	if queued {
		return r.writePlain("⧗ No device ready, playback queued\n")
	}

	return r.writePlain("▶ Playing %d track(s) on %s\n", len(trackIDs), r.bridge.Session().DeviceID)
}

func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensurePlayer(ctx); err != nil {
		return err
	}

	if err := r.controller.Pause(ctx); err != nil {
		return err
	}

	return r.writePlain("⏸ Paused\n")
}

func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensurePlayer(ctx); err != nil {
		return err
	}

	if err := r.controller.Next(ctx); err != nil {
		return err
	}

	return r.writePlain("⏭ Skipped to next track\n")
}

func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensurePlayer(ctx); err != nil {
		return err
	}

	if err := r.controller.Previous(ctx); err != nil {
		return err
	}

	return r.writePlain("⏮ Skipped to previous track\n")
}

// Devices lists the devices the provider reports for this account.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}
	if !r.coordinator.IsAuthenticated() {
		return fmt.Errorf("%w: run 'pagetune auth login'", shared.ErrNotAuthenticated)
	}

	devices, err := r.client.Devices(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}

	if len(devices) == 0 {
		return r.writePlain("No devices available\n")
	}

	for _, device := range devices {
		marker := " "
		if device.Active {
			marker = "*"
		}
		if err := r.writePlain("%s %s (%s) [%s]\n", marker, device.Name, device.Type, device.ID); err != nil {
			return err
		}
	}

	return nil
}
