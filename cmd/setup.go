package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/pagetune/internal/content"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config.toml, creates the database with its schema,
// and creates the content directory.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	if err := r.writePlain("✓ Created %s\n", path); err != nil {
		return err
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := r.writePlain("✓ Initialized database at %s\n", config.Database.Path); err != nil {
		return err
	}

	if _, err := content.NewStore(config.Content.Dir); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}
	if err := r.writePlain("✓ Created content directory %s\n", config.Content.Dir); err != nil {
		return err
	}

	return r.writePlain("\nNext: set spotify.client_id in %s (or PAGETUNE_CLIENT_ID in .env), then run 'pagetune auth login'\n", path)
}
