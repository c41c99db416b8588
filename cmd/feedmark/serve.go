package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"feedmark/internal/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the reader HTTP API",
		Description: `Migrates the database, creates the admin user when READER_ADMIN_EMAIL
		and READER_ADMIN_PASSWORD are set, and serves the API until interrupted.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "How long to wait for in-flight requests on shutdown",
				Value: 30 * time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			config, logger, err := setup(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, config, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(ctx)
			}()

			select {
			case err := <-errCh:
				srv.Close()
				return err
			case <-ctx.Done():
			}

			logger.Info("Gracefully shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return <-errCh
		},
	}
}
