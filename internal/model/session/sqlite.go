package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"
)

const queryTimeout = 5 * time.Second

// SQLiteStore persists the session as two rows of a key/value table so it
// survives restarts of the host, the way browser storage survives page
// navigation.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and creates when needed) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure session database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		) WITHOUT ROWID
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Set writes token and display name in one transaction.
func (s *SQLiteStore) Set(token, displayName string) error {
	if token == "" {
		return ErrInvalidSession
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session write: %w", err)
	}
	defer tx.Rollback()

	const upsert = "INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)"
	if _, err := tx.ExecContext(ctx, upsert, KeyToken, token); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, KeyUsername, displayName); err != nil {
		return fmt.Errorf("write session username: %w", err)
	}
	return tx.Commit()
}

// Token returns the stored bearer token.
func (s *SQLiteStore) Token() (string, bool) {
	sess, ok := s.Current()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// Current reads both keys in one query.
func (s *SQLiteStore) Current() (Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv WHERE key IN (?, ?)", KeyToken, KeyUsername)
	if err != nil {
		return Session{}, false
	}
	defer rows.Close()

	var sess Session
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Session{}, false
		}
		switch key {
		case KeyToken:
			sess.Token = value
		case KeyUsername:
			sess.DisplayName = value
		}
	}
	if rows.Err() != nil || sess.Token == "" {
		return Session{}, false
	}
	return sess, true
}

// Clear removes both keys in one transaction.
func (s *SQLiteStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key IN (?, ?)", KeyToken, KeyUsername)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close releases the database handle. Later calls fail with the driver's
// closed-database error.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
