// Package store persists investments and their per-locale translations.
//
// The same code runs on SQLite (modernc.org/sqlite, the default) and on
// Postgres (lib/pq); bun supplies the dialect.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an investment does not exist.
var ErrNotFound = errors.New("not found")

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and tunes the database.
type Config struct {
	Driver string
	DSN    string
	Debug  bool
}

// Store provides persistence for investments and their translations.
type Store struct {
	db     *bun.DB
	logger *slog.Logger
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var db *bun.DB
	switch cfg.Driver {
	case DriverSQLite, "":
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}

		// A single connection serializes writers and keeps in-memory
		// databases alive for the lifetime of the store.
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)

		pragmas := []string{
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		}
		for _, pragma := range pragmas {
			if _, err := sqldb.ExecContext(ctx, pragma); err != nil {
				sqldb.Close()
				return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
			}
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())

	case DriverPostgres:
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqldb.SetMaxOpenConns(16)
		sqldb.SetConnMaxLifetime(time.Hour)
		db = bun.NewDB(sqldb, pgdialect.New())

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(db, logger)
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store opened", "driver", cfg.Driver)
	return s, nil
}

// New wraps an existing bun database. The schema is not touched.
func New(db *bun.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// CreateSchema creates tables and indexes if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*investmentModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create investments table: %w", err)
	}

	if _, err := s.db.NewCreateTable().
		Model((*translationModel)(nil)).
		IfNotExists().
		ForeignKey(`("investment_id") REFERENCES "investments" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create investment_translations table: %w", err)
	}

	indexes := []struct {
		model   any
		name    string
		unique  bool
		columns []string
	}{
		{(*translationModel)(nil), "investment_translations_investment_lang_idx", true, []string{"investment_id", "lang"}},
		{(*investmentModel)(nil), "investments_submitted_at_idx", false, []string{"submitted_at", "id"}},
		{(*investmentModel)(nil), "investments_category_idx", false, []string{"category"}},
	}
	for _, idx := range indexes {
		q := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// DB exposes the underlying bun database.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
