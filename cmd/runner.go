package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/content"
	"github.com/desertthunder/pagetune/internal/playback"
	"github.com/desertthunder/pagetune/internal/player"
	"github.com/desertthunder/pagetune/internal/recs"
	"github.com/desertthunder/pagetune/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	db          *sql.DB
	coordinator *auth.Coordinator
	client      *playback.Client
	bridge      *player.Bridge
	controller  *playback.Controller
	producer    recs.Producer
	contents    *content.Store
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	DB          *sql.DB
	Coordinator *auth.Coordinator
	Client      *playback.Client
	Bridge      *player.Bridge
	Controller  *playback.Controller
	Producer    recs.Producer
	Contents    *content.Store
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
}

// NewRunner creates a new Runner with the provided dependencies.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		db:          opts.DB,
		coordinator: opts.Coordinator,
		client:      opts.Client,
		bridge:      opts.Bridge,
		controller:  opts.Controller,
		producer:    opts.Producer,
		contents:    opts.Contents,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) requireCoordinator() error {
	if r.coordinator == nil {
		return fmt.Errorf("%w: set spotify.client_id in config.toml (run 'pagetune setup' first)", shared.ErrMissingCredentials)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
