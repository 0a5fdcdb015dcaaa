package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultConfig returns default PostgreSQL configuration for local use.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "txbridge",
		SSLMode:  "disable",
	}
}

// ConfigFromEnv builds a Config from the standard PG* environment variables,
// falling back to DefaultConfig for anything unset.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("PGHOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PGPORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("PGUSER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("PGPASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("PGDATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("PGSSLMODE"); v != "" {
		cfg.SSLMode = v
	}
	return cfg
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DB wraps the shared connection pool. Repositories are constructed from it
// and share the pool; Close releases it.
type DB struct {
	*sql.DB
}

// Open connects to PostgreSQL and verifies the connection, retrying the ping
// with exponential backoff so the service survives a database that is still
// starting up.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	db, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("Open: opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(ping, bo); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: pinging postgres: %w", err)
	}

	return &DB{DB: db}, nil
}
