// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"codeberg.org/oliverandrich/qrtrack/internal/config"
	"codeberg.org/oliverandrich/qrtrack/internal/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cmd := &cli.Command{
		Name:     "qrtrack",
		Usage:    "Trackable QR codes with scan analytics",
		Version:  fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:    config.Flags(),
		Action:   server.Run,
		Commands: []*cli.Command{migrateCommand()},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
