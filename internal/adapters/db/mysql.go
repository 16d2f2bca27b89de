// internal/adapters/db/mysql.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DSN renders the go-sql-driver DSN. ClientFoundRows makes an UPDATE that
// changes nothing still report the matched row.
func (c *MySQLConfig) DSN() string {
	return c.driverConfig().FormatDSN()
}

// MigrationDSN is DSN with multi statement support for migration files
func (c *MySQLConfig) MigrationDSN() string {
	cfg := c.driverConfig()
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

func (c *MySQLConfig) driverConfig() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	if c.ConnectTimeout > 0 {
		cfg.Timeout = c.ConnectTimeout
	}
	return cfg
}

// OpenMySQL opens and pings a MySQL connection pool
func OpenMySQL(ctx context.Context, cfg *MySQLConfig, logger *slog.Logger) (*sql.DB, error) {
	sqlDB, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	logger.Info("database connection established",
		slog.String("driver", "mysql"),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)

	return sqlDB, nil
}
