// Package store persists places, photos and entries in SQLite or PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is a sqlx-backed store. Queries are written with ? placeholders and
// rebound for the driver in use.
type Store struct {
	db *sqlx.DB
}

// Open connects to dsn using driver ("sqlite3" or "postgres").
func Open(driver string, dsn string) (*Store, error) {
	if driver == "sqlite" {
		driver = "sqlite3"
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory: databases alive.
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	klog.V(1).Infof("connected to %s database", driver)
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) postgres() bool {
	return s.db.DriverName() == "postgres" || s.db.DriverName() == "pgx"
}

func (s *Store) schema() []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.postgres() {
		id = "BIGSERIAL PRIMARY KEY"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS places (
  id ` + id + `,
  name TEXT NOT NULL,
  city TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_places_position ON places(latitude, longitude)`,
		`CREATE TABLE IF NOT EXISTS entries (
  id ` + id + `,
  title TEXT NOT NULL,
  slug TEXT NOT NULL DEFAULT '',
  place_id BIGINT REFERENCES places(id),
  author TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  content_html TEXT NOT NULL DEFAULT '',
  excerpt TEXT NOT NULL DEFAULT '',
  published_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_slug ON entries(slug) WHERE slug <> ''`,
		`CREATE TABLE IF NOT EXISTS photos (
  id ` + id + `,
  uuid TEXT NOT NULL UNIQUE,
  place_id BIGINT REFERENCES places(id),
  entry_id BIGINT REFERENCES entries(id),
  source_path TEXT NOT NULL UNIQUE,
  image_path TEXT NOT NULL DEFAULT '',
  thumbnail_path TEXT NOT NULL DEFAULT '',
  author TEXT NOT NULL DEFAULT '',
  taken_at TIMESTAMP,
  description TEXT NOT NULL DEFAULT '',
  keywords TEXT NOT NULL DEFAULT '',
  capture_address TEXT NOT NULL DEFAULT '',
  entry_order INTEGER NOT NULL DEFAULT 0,
  latitude DOUBLE PRECISION,
  longitude DOUBLE PRECISION
)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_place ON photos(place_id)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_entry ON photos(entry_id, entry_order)`,
	}
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range s.schema() {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			first, _, _ := strings.Cut(q, "(")
			return fmt.Errorf("migrate %q: %w", strings.TrimSpace(first), err)
		}
	}
	return nil
}

// insert runs a named INSERT ... RETURNING id query and returns the new id.
func (s *Store) insert(ctx context.Context, q string, arg interface{}) (int64, error) {
	rows, err := s.db.NamedQueryContext(ctx, q+" RETURNING id", arg)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("insert returned no id")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Err()
}

// updated checks that an UPDATE touched a row.
func updated(res interface{ RowsAffected() (int64, error) }, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
