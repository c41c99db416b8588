package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"feedmark/internal/auth"
	"feedmark/internal/core"
	"feedmark/internal/features/reader/migrations"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:        "migrate",
		Usage:       "Run database migrations",
		Description: `Applies the identity and reader migrations. Creates the database if it does not exist.`,
		Action: func(c *cli.Context) error {
			config, logger, db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Printf("Database configured: %s\n", config.Database.Path)

			ctx := context.Background()
			if err := core.NewMigrationService(db, logger).ApplyAll(ctx, auth.Migrations); err != nil {
				return fmt.Errorf("failed to apply auth migrations: %w", err)
			}
			return migrations.NewManager(db, logger).Migrate(ctx)
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last reader migration, or the identity tables once no reader migration is left.`,
		Action: func(c *cli.Context) error {
			config, logger, db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Printf("Database configured: %s\n", config.Database.Path)

			ctx := context.Background()
			service := core.NewMigrationService(db, logger)
			if err := service.InitMigrations(ctx); err != nil {
				return err
			}

			readerMigrations := migrations.NewManager(db, logger)
			pending, err := readerMigrations.GetPendingMigrations(ctx)
			if err != nil {
				return err
			}
			if len(pending) < len(readerMigrations.Migrations()) {
				return readerMigrations.Rollback(ctx)
			}

			last, err := service.LastApplied(ctx, auth.Migrations)
			if err != nil {
				return err
			}
			if last == nil {
				return fmt.Errorf("no migrations have been applied")
			}
			return service.RollbackMigration(ctx, *last)
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show applied and pending migrations",
		Action: func(c *cli.Context) error {
			_, logger, db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			service := core.NewMigrationService(db, logger)
			if err := service.InitMigrations(ctx); err != nil {
				return err
			}

			status, err := service.GetMigrationStatus(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Applied migrations: %d\n", status.AppliedCount)
			for _, m := range status.Applied {
				fmt.Printf("  %03d %-28s %s\n", m.Version, m.Name, m.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			all := append(append([]core.Migration{}, auth.Migrations...), migrations.NewManager(db, logger).Migrations()...)
			pending, err := service.Pending(ctx, all)
			if err != nil {
				return err
			}

			fmt.Printf("Pending migrations: %d\n", len(pending))
			for _, m := range pending {
				fmt.Printf("  %03d %s\n", m.Version, m.Name)
			}
			return nil
		},
	}
}
