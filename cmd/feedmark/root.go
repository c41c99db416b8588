package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"feedmark/internal/core"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "feedmark",
		Usage: "Per-user read tracking for subscribed feeds",
		Description: `Serves merged, paginated views of feed entries by feed, category or
		"all", split into unread and read partitions, and records which entries
		each user has read.

		Settings come from READER_* environment variables (a .env file is loaded
		when present), optionally overridden by a TOML file:

		--config => READER_CONFIG=feedmark.toml
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
				EnvVars: []string{"READER_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log at debug level regardless of the configured level",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			statusCmd(),
			userCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// setup loads the config and builds the logger every command shares
func setup(c *cli.Context) (*core.Config, *core.Logger, error) {
	config, err := core.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger := core.NewLoggerFromConfig(config.Log, os.Stderr)
	if c.Bool("debug") {
		logger.SetLevel(slog.LevelDebug)
	}
	return config, logger, nil
}

// openDatabase is setup plus an open database for one-shot commands
func openDatabase(c *cli.Context) (*core.Config, *core.Logger, *core.Database, error) {
	config, logger, err := setup(c)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := core.OpenDatabase(context.Background(), config.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	return config, logger, db, nil
}
