package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = ":memory:"

// SQLiteStore implements Store on SQLite. Rows are keyed by session, so a
// file-backed database can be shared by many sessions without their
// classifications mixing.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	sessionID string
}

// NewSQLiteStore opens the database at dbPath for the given session.
// Call Migrate before use.
func NewSQLiteStore(dbPath string, sessionID string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	dsn := dbPath
	if dbPath != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection also keeps an in-memory database alive for the
	// life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:        db,
		dbPath:    dbPath,
		sessionID: sessionID,
	}, nil
}

// SessionID returns the session this store reads and writes.
func (s *SQLiteStore) SessionID() string {
	return s.sessionID
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
