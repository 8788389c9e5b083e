// Command migrate applies or reverts the database schema.
//
//	migrate up
//	migrate down
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/migrations"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	direction := database.DirectionUp
	if len(args) > 0 {
		direction = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger).With().Str("component", "migrate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	applied, err := database.Migrate(ctx, pool, migrations.Files, direction, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("direction", direction).
		Int("files", applied).
		Msg("migrations completed")
	return nil
}
