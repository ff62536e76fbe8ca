// Package backend selects and constructs the ledger store from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"finledger/internal/config"
	"finledger/internal/ledger/memory"
	"finledger/internal/services"
	"finledger/internal/storage"
)

// Type identifies a ledger store implementation.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) String() string { return string(t) }

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// Open builds the store named by the configuration. Stores holding resources
// implement io.Closer; the owning service closes them on shutdown.
func Open(cfg *config.Config) (services.Store, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		slog.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return repo, nil
	default:
		slog.Info("Initialized memory backend")
		return memory.New(), nil
	}
}
