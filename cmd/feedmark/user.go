package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"feedmark/internal/auth"
	"feedmark/internal/core"
)

func userCmd() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage reader users",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an activated user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Login email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Login password",
						EnvVars:  []string{"READER_USER_PASSWORD"},
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					config, logger, db, err := openDatabase(c)
					if err != nil {
						return err
					}
					defer db.Close()

					ctx := context.Background()
					if err := core.NewMigrationService(db, logger).ApplyAll(ctx, auth.Migrations); err != nil {
						return fmt.Errorf("failed to apply auth migrations: %w", err)
					}

					service := auth.NewService(db, logger, config.Auth.TokenTTL.Duration)
					user, err := service.CreateUser(ctx, c.String("name"), c.String("email"), c.String("password"))
					if err != nil {
						return err
					}

					fmt.Printf("Created user %d <%s>\n", user.ID, user.Email)
					return nil
				},
			},
		},
	}
}
