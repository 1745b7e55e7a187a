package db

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// DefaultSQLiteDSN is a process-scoped in-memory database. It lives as
	// long as the pool keeps a connection open.
	DefaultSQLiteDSN = "file:kbbridge?mode=memory&cache=shared"
)

type Config struct {
	Driver   string `default:"sqlite"`
	DSN      string
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	User     string `default:"kbbridge"`
	Password string `default:"password"`
	Database string `envconfig:"NAME" default:"kbbridge"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

// New opens the configured database, verifies the connection and tunes the
// pool. SQLite is the default and gets a single connection, which keeps an
// in-memory database alive and serializes writers.
func New(ctx context.Context, cfg Config) (*bun.DB, error) {
	var db *bun.DB

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite, "sqlite3":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)
		sqldb.SetConnMaxIdleTime(0)
		db = bun.NewDB(sqldb, sqlitedialect.New())

	case DriverPostgres, "postgresql", "pg":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())

		maxOpenConns := 4 * runtime.GOMAXPROCS(0)
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// Queries carry tokens and installation secrets as bound values, so
	// printing them stays off unless BUNDEBUG is set (1 errors, 2 all).
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG"),
	))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
