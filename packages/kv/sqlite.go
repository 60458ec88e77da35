package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL,
	path       TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (name, domain, path)
)`

// SQLiteStore keeps entries in a SQLite database.
type SQLiteStore struct {
	db           *sql.DB
	dataSource   string
	queryTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the database at connStr, which
// is a file path, "sqlite://path" or "sqlite:path". ":memory:" gives a
// private in-memory database.
func NewSQLiteStore(connStr string) (*SQLiteStore, error) {
	dsn := parseConnectionString(connStr)
	if dsn == "" {
		return nil, fmt.Errorf("empty database path")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases from splitting per connection
	// and serialises writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:           db,
		dataSource:   dsn,
		queryTimeout: 30 * time.Second,
	}, nil
}

// parseConnectionString strips an optional sqlite:// or sqlite: prefix.
func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://")
	}
	return strings.TrimPrefix(connStr, "sqlite:")
}

func (s *SQLiteStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *SQLiteStore) Set(ctx context.Context, key Key, value string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (name, domain, path, value, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name, domain, path) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key.Name, key.Domain, key.Path, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set failed: %w", mapClosed(err))
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key Key) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE name = ? AND domain = ? AND path = ?`,
		key.Name, key.Domain, key.Path).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get failed: %w", mapClosed(err))
	}
	return value, true, nil
}

func (s *SQLiteStore) Update(ctx context.Context, key Key, value string) (string, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("update failed: %w", mapClosed(err))
	}
	defer func() { _ = tx.Rollback() }()

	var old string
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE name = ? AND domain = ? AND path = ?`,
		key.Name, key.Domain, key.Path).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("update failed: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE kv SET value = ?, updated_at = ? WHERE name = ? AND domain = ? AND path = ?`,
		value, time.Now().Unix(), key.Name, key.Domain, key.Path); err != nil {
		return "", false, fmt.Errorf("update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("update failed: %w", err)
	}
	return old, true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE name = ? AND domain = ? AND path = ?`,
		key.Name, key.Domain, key.Path)
	if err != nil {
		return fmt.Errorf("delete failed: %w", mapClosed(err))
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, domain string) ([]Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `SELECT name, domain, path, value FROM kv`
	var args []any
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY domain, path, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", mapClosed(err))
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key.Name, &e.Key.Domain, &e.Key.Path, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func mapClosed(err error) error {
	if err != nil && strings.Contains(err.Error(), "sql: database is closed") {
		return errors.Join(ErrClosed, err)
	}
	return err
}

var _ Store = (*SQLiteStore)(nil)
