// Package app wires the pieces every linguapath command needs: the
// configuration, the logger and a migrated database.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"linguapath/internal/config"
	"linguapath/internal/database"
	"linguapath/internal/logging"
	"linguapath/migrations"
)

// Env is the shared runtime of a command
type Env struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *database.DB
}

// Bootstrap loads an optional .env file, the configuration, and opens and
// migrates the database
func Bootstrap(ctx context.Context) (*Env, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.WithField("type", db.Dialect.MigrationsSubdir()).Info("Database connection established")

	var migrationsFS fs.FS = migrations.FS
	if cfg.MigrationsPath != "" {
		migrationsFS = os.DirFS(cfg.MigrationsPath)
	}
	if err := db.RunMigrations(ctx, migrationsFS, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Env{Config: cfg, Logger: logger, DB: db}, nil
}

// Close releases the database connection
func (e *Env) Close() error {
	return e.DB.Close()
}
