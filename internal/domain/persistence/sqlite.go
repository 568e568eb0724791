package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps records in a single table keyed by scope
type SQLiteBackend struct {
	conn *sql.DB
}

// NewSQLiteBackend opens/creates the database at path and initializes the
// schema. Pass ":memory:" for an in-memory database (tests).
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a second connection to ":memory:" would see an empty database
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	b := &SQLiteBackend{conn: conn}
	if err := b.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_records (
		scope TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := b.conn.Exec(schema)
	return err
}

// Load returns the record for key
func (b *SQLiteBackend) Load(ctx context.Context, key string) (*Record, bool, error) {
	var payload []byte
	err := b.conn.QueryRowContext(ctx,
		`SELECT payload FROM session_records WHERE scope = ?`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query record: %w", err)
	}

	var rec Record
	if err := sonic.Unmarshal(payload, &rec); err != nil {
		return nil, false, fmt.Errorf("decode record: %w", err)
	}
	return &rec, true, nil
}

// Save upserts the record for key
func (b *SQLiteBackend) Save(ctx context.Context, key string, rec *Record) error {
	payload, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = b.conn.ExecContext(ctx, `
		INSERT INTO session_records (scope, version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, key, rec.Version, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Delete removes the record for key
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	_, err := b.conn.ExecContext(ctx, `DELETE FROM session_records WHERE scope = ?`, key)
	return err
}

// Scopes lists every stored scope key, most recently saved first
func (b *SQLiteBackend) Scopes(ctx context.Context) ([]string, error) {
	rows, err := b.conn.QueryContext(ctx, `SELECT scope FROM session_records ORDER BY updated_at DESC, scope`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []string
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
