package main

import (
	"context"

	"github.com/desertthunder/streamsavvy/internal/server"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the mock REST API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.MockAPI
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("db") {
		cfg.DBPath = cmd.String("db")
	}
	if delay := int(cmd.Int("delay")); delay >= 0 {
		cfg.DelayMS = delay
	}

	srv, err := server.New(cfg, r.fs, shared.WithLogger(r.logger, "component", "mockapi"))
	if err != nil {
		return err
	}

	ready := make(chan string, 1)
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe(ctx, ready) }()

	select {
	case addr := <-ready:
		r.writePlain("Mock API: http://%s/api (movies, users)\nPress Ctrl+C to stop.\n", addr)
	case err := <-errs:
		return err
	}
	return <-errs
}
