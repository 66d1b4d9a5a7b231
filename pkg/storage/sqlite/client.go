// Package sqlite opens a SQLite-backed snapshot store.
//
// SQLite is a file-based database suited to a single device; the snapshot
// lives in a handful of tables next to whatever else the app keeps there.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/methmouth/Robot/pkg/storage/sqlstore"
)

// Config contains configuration for creating a SQLite snapshot store.
type Config struct {
	// DBPath is the path to the SQLite database file, or ":memory:".
	DBPath string

	// TablePrefix defaults to sqlstore.DefaultTablePrefix.
	TablePrefix string
}

// NewStore opens the database and prepares the snapshot tables.
func NewStore(cfg *Config) (*sqlstore.Store, error) {
	if cfg == nil || cfg.DBPath == "" {
		return nil, fmt.Errorf("NewSQLiteStore: db path is required")
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if cfg.DBPath != ":memory:" && dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, fmt.Errorf("NewSQLiteStore: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteStore: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewSQLiteStore: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, sqlstore.SQLite, cfg.TablePrefix)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
