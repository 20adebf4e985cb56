package main

import (
	"context"
	"os"

	"github.com/desertthunder/streamsavvy/internal/credentials"
	"github.com/desertthunder/streamsavvy/internal/repositories"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template when missing and initializes the configured storage.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", r.configPath)
			}
		}
	}

	r.logger.Info("initializing storage", "backend", r.config.Storage.Backend)
	if err := r.open(); err != nil {
		return err
	}

	if cmd.Bool("seed-demo") && !r.config.Identity.SeedDemo {
		r.seedDemo(credentials.NewHasher(credentials.DefaultParams))
	}

	r.writePlainHeader("Setup complete")
	r.writePlain("Storage: %s\n", r.config.Storage.Backend)
	switch r.config.Storage.Backend {
	case "sqlite":
		r.writePlain("Database: %s\n", r.config.Database.Path)
	case "dir":
		r.writePlain("Directory: %s\n", r.config.Storage.Dir)
	}
	r.writePlain("Identities: %d\n", r.identities.Count())
	if cmd.Bool("seed-demo") || r.config.Identity.SeedDemo {
		r.writePlain("Demo account: %s / %s\n", repositories.DemoEmail, repositories.DemoPassword)
	}
	return nil
}
