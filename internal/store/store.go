// Package store persists collected and analyzed products and the publish
// ledger in SQLite or PostgreSQL through sqlx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// timeLayout is fixed-width so stored timestamps compare as strings.
const timeLayout = "2006-01-02T15:04:05Z"

// Store wraps the database handle.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open connects, pings and migrates. For sqlite the DSN is a file path or
// ":memory:".
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer, and ":memory:" databases are per-connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS raw_products(
  source_url     TEXT PRIMARY KEY,
  source         TEXT NOT NULL,
  title_cn       TEXT,
  title_ru       TEXT,
  category       TEXT,
  price_cny      DOUBLE PRECISION,
  min_order      INTEGER,
  sales_volume   INTEGER,
  sales_trend    DOUBLE PRECISION,
  rating         DOUBLE PRECISION,
  supplier_name  TEXT,
  supplier_years INTEGER,
  image_url      TEXT,
  specs          TEXT,
  wb_keyword     TEXT,
  wb_est_price   DOUBLE PRECISION,
  collected_at   TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS analyzed_products(
  source_url         TEXT PRIMARY KEY,
  raw_json           TEXT NOT NULL,
  category           TEXT,
  price_rub          DOUBLE PRECISION,
  delivery_cost_est  DOUBLE PRECISION,
  customs_duty_est   DOUBLE PRECISION,
  total_landed_cost  DOUBLE PRECISION,
  wb_avg_price       DOUBLE PRECISION,
  wb_competitors     INTEGER,
  search_keyword     TEXT,
  pricing_source     TEXT,
  margin_pct         DOUBLE PRECISION,
  margin_rub         DOUBLE PRECISION,
  trend_score        DOUBLE PRECISION,
  competition_score  DOUBLE PRECISION,
  margin_score       DOUBLE PRECISION,
  reliability_score  DOUBLE PRECISION,
  total_score        DOUBLE PRECISION,
  trend_status       TEXT,
  market_opportunity TEXT,
  trend_confidence   DOUBLE PRECISION,
  ai_insight         TEXT,
  analyzed_at        TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_analyzed_score ON analyzed_products(total_score)`,
	`CREATE INDEX IF NOT EXISTS idx_analyzed_at ON analyzed_products(analyzed_at)`,
	`CREATE TABLE IF NOT EXISTS published_posts(
  id           TEXT PRIMARY KEY,
  source_url   TEXT NOT NULL,
  platform     TEXT NOT NULL,
  post_type    TEXT NOT NULL,
  category     TEXT,
  image_url    TEXT,
  message_id   TEXT,
  post_text    TEXT NOT NULL,
  published_at TEXT NOT NULL,
  UNIQUE(source_url, platform)
)`,
	`CREATE INDEX IF NOT EXISTS idx_published_url ON published_posts(source_url)`,
	`CREATE INDEX IF NOT EXISTS idx_published_image ON published_posts(image_url)`,
	`CREATE INDEX IF NOT EXISTS idx_published_at ON published_posts(published_at)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// exec rebinds '?' placeholders for the active driver.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}

func (s *Store) get(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.GetContext(ctx, dest, s.db.Rebind(query), args...)
}

func (s *Store) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func newID() string { return uuid.NewString() }
