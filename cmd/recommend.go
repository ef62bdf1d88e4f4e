package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pagetune/internal/recs"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

// Recommend feeds the latest scraped page text to the recommendation agent
// and prints the tracks it suggests. With --play, eligible tracks are handed
// to the playback controller.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	if r.contents == nil {
		return fmt.Errorf("%w: content store unavailable", shared.ErrNoContent)
	}

	text, err := r.contents.Latest()
	if err != nil {
		return err
	}

	r.logger.Infof("running recommendation agent on %d bytes of page text", len(text))

	recommendations, err := r.producer.Recommend(ctx, text)
	if err != nil {
		return fmt.Errorf("recommendation agent failed: %w", err)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(recommendations, true); err != nil {
			return err
		}
	} else {
		if len(recommendations) == 0 {
			return r.writePlain("No recommendations\n")
		}
		for i, rec := range recommendations {
			if err := r.writePlain("%d. %s — %s\n", i+1, rec.Title, rec.Artist); err != nil {
				return err
			}
			if rec.MatchReason != "" {
				if err := r.writePlain("   %s\n", rec.MatchReason); err != nil {
					return err
				}
			}
		}
	}

	if !cmd.Bool("play") {
		return nil
	}

	trackIDs := recs.Eligible(recommendations)
	if len(trackIDs) == 0 {
		return shared.ErrNoRecommendations
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

	return r.writePlain("▶ Playing %d track(s)\n", len(trackIDs))
}
