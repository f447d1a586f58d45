// Package storage holds the classifications produced during one triage session.
// Every backend scopes its data to a session ID, so a new process always starts
// with an empty store.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/google/uuid"
)

// Store driver names.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Store is the per-session classification store.
// Entries are never deleted, and an automatic result never replaces a user override.
type Store interface {
	// Get returns the classification held for identity, or an error wrapping
	// common.ErrNotFound.
	Get(ctx context.Context, identity string) (model.Classification, error)
	// Save inserts or replaces the classification for c.Identity. Saving an
	// automatic result over a user override fails with ErrOverrideProtected.
	Save(ctx context.Context, c model.Classification) error
	// List returns every classification in first-insertion order.
	List(ctx context.Context) ([]model.Classification, error)
	Close() error
}

// Options selects and configures a store backend.
type Options struct {
	Driver        string
	SessionID     string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Open creates the store described by opts. An empty session ID is replaced
// with a new one.
func Open(ctx context.Context, opts Options) (Store, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = MemoryDSN
		}
		store, err := NewSQLiteStore(path, sessionID)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case DriverRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:      opts.RedisAddr,
			Password:  opts.RedisPassword,
			DB:        opts.RedisDB,
			TTL:       opts.RedisTTL,
			SessionID: sessionID,
		})
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}
