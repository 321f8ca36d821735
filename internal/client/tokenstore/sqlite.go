package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"EEOS-client/internal/platform/db"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_tokens (
    id            INTEGER PRIMARY KEY CHECK (id = 1),
    access_token  TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    updated_at    INTEGER NOT NULL
);`

// SQLite keeps the pair in a single-row table. Both columns are written in
// one statement inside a transaction, so a half pair is never stored.
type SQLite struct {
	sqlDB *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("tokenstore: sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: open sqlite: %w", err)
	}
	// one writer keeps WAL mode simple for a single-user device store
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("tokenstore: ping sqlite: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("tokenstore: create schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLite) Read(ctx context.Context) (Session, error) {
	var out Session
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM session_tokens WHERE id = 1`,
	).Scan(&out.AccessToken, &out.RefreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("tokenstore: read session: %w", err)
	}
	if !out.Valid() {
		return Session{}, nil
	}
	return out, nil
}

func (s *SQLite) Write(ctx context.Context, sess Session) error {
	if err := checkWrite(sess); err != nil {
		return err
	}
	return db.RunInTx(ctx, s.sqlDB, nil, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO session_tokens (id, access_token, refresh_token, updated_at)
VALUES (1, ?, ?, strftime('%s','now'))
ON CONFLICT(id) DO UPDATE SET
    access_token  = excluded.access_token,
    refresh_token = excluded.refresh_token,
    updated_at    = excluded.updated_at`,
			sess.AccessToken, sess.RefreshToken,
		)
		if err != nil {
			return fmt.Errorf("tokenstore: write session: %w", err)
		}
		return nil
	})
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM session_tokens`); err != nil {
		return fmt.Errorf("tokenstore: clear session: %w", err)
	}
	return nil
}
