// Package main implements the scry-study HTTP server, which serves decks,
// study sessions and SM-2 scheduling to authenticated users.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./config.yaml or $HOME/.scry-study/config.yaml)")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(context.Background(), *configPath, *migrateCmd); err != nil {
		log.Fatalf("scry-study server: %v", err)
	}
}

func run(ctx context.Context, configPath, migrateCmd string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	appLogger.Info("database connection established")

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		appLogger.Info("executing migrations", slog.String("command", migrateCmd))
		return postgres.Migrate(logger.WithLogger(ctx, appLogger), db, migrateCmd)
	}

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
