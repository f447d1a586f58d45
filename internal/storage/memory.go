package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
)

// MemoryStore keeps classifications in process memory.
type MemoryStore struct {
	entries map[string]model.Classification
	order   []string
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]model.Classification)}
}

// Get returns the classification for identity.
func (s *MemoryStore) Get(ctx context.Context, identity string) (model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return model.Classification{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.entries[identity]
	if !ok {
		return model.Classification{}, fmt.Errorf("classification %s: %w", identity, common.ErrNotFound)
	}
	return c, nil
}

// Save stores c under its identity.
func (s *MemoryStore) Save(ctx context.Context, c model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClassification(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[c.Identity]
	if ok {
		if err := checkReplace(existing.Origin, c.Origin); err != nil {
			return err
		}
	} else {
		s.order = append(s.order, c.Identity)
	}

	s.entries[c.Identity] = c
	return nil
}

// List returns all classifications in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Classification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
