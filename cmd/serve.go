package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/relay"
	"github.com/desertthunder/pagetune/internal/repositories"
	"github.com/desertthunder/pagetune/internal/server"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the companion daemon the browser extension talks to: content
// capture, auth relay with WebSocket status events, and the OAuth callback,
// all on one port.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCoordinator(); err != nil {
		return err
	}
	if err := r.requireContents(); err != nil {
		return err
	}

	logger := shared.WithLogger(r.logger, "component", "daemon")

	// The daemon owns /callback, so its coordinator authorizes through the
	// shared handler instead of spinning up a second server on the port.
	callback := server.NewSharedCallbackAuthorizer(logger)

	coordinator, err := auth.NewCoordinator(auth.CoordinatorOpts{
		Provider:   r.config.Spotify,
		Store:      repositories.NewTokenRepository(r.db),
		Authorizer: callback,
		HTTPClient: r.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	authRelay := relay.New(coordinator, logger)
	events := server.NewEventsHandler(authRelay, logger)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(logger))
	router.Handler(callback)
	router.Handler(events)
	router.Handler(server.NewContentHandler(r.contents, logger))
	router.Handler(server.NewAuthHandler(authRelay, coordinator, logger))
	router.Handler(server.NewHealthHandler(coordinator))

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("companion daemon listening on %s", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
