// Package postgres opens a PostgreSQL-backed snapshot store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/methmouth/Robot/pkg/storage/sqlstore"
)

// Config contains PostgreSQL configuration.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	TablePrefix string
}

// DSN returns the lib/pq connection string for cfg.
func (cfg *Config) DSN() string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
}

// NewStore connects to PostgreSQL and prepares the snapshot tables.
func NewStore(cfg *Config) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("NewPostgresStore: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewPostgresStore: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, sqlstore.Postgres, cfg.TablePrefix)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
