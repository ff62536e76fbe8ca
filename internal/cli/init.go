// Package cli provides common initialization for the finledger binaries.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"finledger/internal/config"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// Bootstrap loads the .env file, installs the default logger and returns the
// validated configuration. Exits the process on invalid configuration.
func Bootstrap(service string) (*slog.Logger, *config.Config) {
	// .env is optional in production/docker
	_ = godotenv.Load()

	logger := applog.Setup(service)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	return logger, cfg
}

// InitSQLite opens the SQLite repository and runs migrations.
// Exits the process on failure.
func InitSQLite(logger *slog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
