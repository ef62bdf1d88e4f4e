package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/content"
	"github.com/desertthunder/pagetune/internal/playback"
	"github.com/desertthunder/pagetune/internal/player"
	"github.com/desertthunder/pagetune/internal/recs"
	"github.com/desertthunder/pagetune/internal/repositories"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	opts := RunnerOpts{Config: config, Logger: logger}

	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			// a half-migrated database would fail every repository call
			logger.Fatalf("failed to run migrations: %v", err)
		}
		opts.DB = db

		if coordinator, err := auth.NewCoordinator(auth.CoordinatorOpts{
			Provider:   config.Spotify,
			Store:      repositories.NewTokenRepository(db),
			Authorizer: newAuthorizer(config, logger),
			HTTPClient: http.DefaultClient,
			Logger:     logger,
		}); err == nil {
			opts.Coordinator = coordinator

			client := playback.NewClient(config.Spotify.APIBaseURL, coordinator, nil, logger)
			bridge := player.NewBridge(player.BridgeOpts{
				Frame:      player.NoFrame{},
				Devices:    client,
				Cache:      repositories.NewSessionCacheRepository(db, 0),
				PlayerName: config.Spotify.PlayerName,
				ReadyWait:  terminalReadyWait,
				Logger:     logger,
			})

			opts.Client = client
			opts.Bridge = bridge
			opts.Controller = playback.NewController(client, bridge, repositories.NewPendingPlaybackRepository(db, 0), logger)
		}
	} else {
		logger.Debugf("database unavailable until setup runs: %v", err)
	}

	if store, err := content.NewStore(config.Content.Dir); err == nil {
		opts.Contents = store
	}

	opts.Producer = recs.NewCommandProducer(config.Agent, logger)

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:    "pagetune",
		Usage:   "Turn the page you are reading into music",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
