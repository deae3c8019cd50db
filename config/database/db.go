package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net"
	"net/url"

	"github.com/avast/retry-go/v4"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"notesapp/internal/config"
	"notesapp/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DSN builds the postgres connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	ds := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return ds.String()
}

// Connect opens the database and pings it until it answers or the attempts
// configured in cfg run out.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := ping(ctx, db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	logger.Sugar.Infof("Successfully connected to the database %s", cfg.Name)
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig) error {
	attempts := cfg.PingAttempts
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.PingDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Sugar.Warnf("Database connection failed, retrying in %s... (attempt %d: %v)", cfg.PingDelay, n+1, err)
		}),
	)
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

// Migrate applies every pending migration embedded in the binary.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...any) { logger.Sugar.Fatalf(format, v...) }
func (gooseLogger) Printf(format string, v ...any) { logger.Sugar.Infof(format, v...) }
