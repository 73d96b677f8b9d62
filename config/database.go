package config

import (
	"fmt"
	"os"

	"github.com/splitly/splitly-api/store"
	"github.com/splitly/splitly-api/store/postgres"
	"github.com/splitly/splitly-api/store/sqlite"
)

// InitStore opens the configured storage backend. DATABASE_URL selects
// postgres; otherwise a local SQLite file is used (SQLITE_PATH, defaulting to
// ./data/splitly.db).
func InitStore() (store.Store, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		st, err := postgres.New(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return st, nil
	}

	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "./data/splitly.db"
	}

	st, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return st, nil
}
