// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/database"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// migrateCommand exposes schema maintenance. Opening the database already
// applies pending migrations, so "up" only reports the resulting version.
func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Inspect or roll back the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: withDatabase(printVersion),
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: withDatabase(func(cmd *cli.Command, db *sqlx.DB) error {
					if err := database.MigrateDown(db.DB); err != nil {
						return fmt.Errorf("rollback failed: %w", err)
					}
					return printVersion(cmd, db)
				}),
			},
			{
				Name:   "version",
				Usage:  "Print the current schema version",
				Action: withDatabase(printVersion),
			},
		},
	}
}

func withDatabase(fn func(*cli.Command, *sqlx.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		db, err := database.Open(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()
		return fn(cmd, db)
	}
}

func printVersion(cmd *cli.Command, db *sqlx.DB) error {
	version, err := database.SchemaVersion(db.DB)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
	return err
}
