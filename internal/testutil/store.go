// Package testutil provides test helpers for the triage packages: isolated
// session stores and a fluent builder for email records.
package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/storage"
)

// TestStore is a session store scoped to one test.
type TestStore struct {
	Store     storage.Store
	t         *testing.T
	SessionID string
}

// SetupTestStore opens a fresh store for driver ("memory" or "sqlite"; the
// SQLite store lives in memory). It is closed when the test ends.
//
// Example:
//
//	ts := testutil.SetupTestStore(t, storage.DriverSQLite)
//	eng := engine.New(ts.Store, nil, classifier, nil)
func SetupTestStore(t *testing.T, driver string) *TestStore {
	t.Helper()

	sessionID := storage.NewSessionID()
	store, err := storage.Open(context.Background(), storage.Options{
		Driver:     driver,
		SessionID:  sessionID,
		SQLitePath: storage.MemoryDSN,
	})
	if err != nil {
		t.Fatalf("failed to open %s test store: %v", driver, err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestStore{Store: store, SessionID: sessionID, t: t}
}

// MustSave stores c or fails the test.
func (ts *TestStore) MustSave(c model.Classification) {
	ts.t.Helper()
	if err := ts.Store.Save(context.Background(), c); err != nil {
		ts.t.Fatalf("failed to save %s: %v", c.Identity, err)
	}
}

// MustGet returns the stored classification for identity or fails the test.
func (ts *TestStore) MustGet(identity string) model.Classification {
	ts.t.Helper()
	c, err := ts.Store.Get(context.Background(), identity)
	if err != nil {
		ts.t.Fatalf("failed to get %s: %v", identity, err)
	}
	return c
}

// Has reports whether identity has a stored classification.
func (ts *TestStore) Has(identity string) bool {
	ts.t.Helper()
	_, err := ts.Store.Get(context.Background(), identity)
	if errors.Is(err, common.ErrNotFound) {
		return false
	}
	if err != nil {
		ts.t.Fatalf("failed to get %s: %v", identity, err)
	}
	return true
}
