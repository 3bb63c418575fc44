// Package history persists search listings and composed outreach messages.
//
// The same schema runs on SQLite (modernc.org/sqlite, the default) and on
// PostgreSQL through the pgx database/sql driver.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "pgx"

	DefaultDSN = "dev-sourcer.db"
)

var ErrNotFound = errors.New("not found")

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Timestamps are stored as fixed-width UTC text so that they sort the same on every driver.
const timeLayout = "2006-01-02T15:04:05.000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS search_listing (
		id TEXT PRIMARY KEY,
		entered_query TEXT NOT NULL,
		parsed_query TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS search_listing_created_at ON search_listing (created_at)`,
	`CREATE TABLE IF NOT EXISTS candidate (
		search_listing_id TEXT NOT NULL REFERENCES search_listing (id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		github_username TEXT NOT NULL,
		avatar_url TEXT NOT NULL,
		location TEXT NOT NULL,
		bio TEXT NOT NULL,
		profile_url TEXT NOT NULL,
		extra_data TEXT NOT NULL,
		languages TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (search_listing_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS outreach_message (
		id TEXT PRIMARY KEY,
		search_listing_id TEXT NOT NULL REFERENCES search_listing (id) ON DELETE CASCADE,
		candidate_id TEXT NOT NULL,
		recruiter TEXT NOT NULL,
		mode TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS outreach_message_listing ON outreach_message (search_listing_id, created_at)`,
}

type Config struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Store struct {
	db     *sql.DB
	driver Driver
	logger *zap.Logger
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	driver := Driver(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported history driver %q", cfg.Driver)
	}

	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		if driver == DriverPostgres {
			return nil, errors.New("history dsn is required for postgres")
		}
		dsn = DefaultDSN
	}

	db, err := openDB(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One writer at a time keeps SQLite from returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s history: %w", driver, err)
	}

	s := &Store{db: db, driver: driver, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("history store ready", zap.String("driver", string(driver)))

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if s.driver == DriverSQLite {
		if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply history schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into the driver's native form.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
