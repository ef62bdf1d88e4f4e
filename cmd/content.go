package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireContents() error {
	if r.contents == nil {
		return fmt.Errorf("%w: content store unavailable", shared.ErrNoContent)
	}
	return nil
}

// ContentLatest prints the most recently scraped page text.
func (r *Runner) ContentLatest(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireContents(); err != nil {
		return err
	}

	text, err := r.contents.Latest()
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", text)
}

// ContentList lists stored captures, newest first.
func (r *Runner) ContentList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireContents(); err != nil {
		return err
	}

	entries, err := r.contents.List()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return r.writePlain("No captures stored\n")
	}

	for _, entry := range entries {
		if err := r.writePlain("%s  %s  %d bytes\n", entry.ModTime.Format(time.DateTime), entry.Name, entry.Size); err != nil {
			return err
		}
	}

	return nil
}

// ContentPurge deletes captures older than the --hours cutoff.
func (r *Runner) ContentPurge(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireContents(); err != nil {
		return err
	}

	hours := cmd.Int("hours")
	if hours <= 0 {
		return fmt.Errorf("%w: hours must be positive", shared.ErrInvalidArgument)
	}

	removed, err := r.contents.Purge(time.Duration(hours) * time.Hour)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Removed %d capture(s)\n", removed)
}
