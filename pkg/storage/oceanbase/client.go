// Package oceanbase opens a snapshot store on OceanBase (or any MySQL
// compatible server) through go-sql-driver/mysql.
package oceanbase

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/methmouth/Robot/pkg/storage/sqlstore"
)

// Config contains OceanBase configuration.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	TablePrefix string
}

// DSN returns the driver connection string for cfg.
func (cfg *Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	return mc.FormatDSN()
}

// NewStore connects to OceanBase and prepares the snapshot tables.
func NewStore(cfg *Config) (*sqlstore.Store, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseStore: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewOceanBaseStore: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, sqlstore.MySQL, cfg.TablePrefix)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
