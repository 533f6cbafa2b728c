package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process entry store. A single RWMutex gives the
// single-writer/multiple-reader discipline the scan path needs: Put takes
// the write lock, lookups and scans share read locks.
type MemoryStore struct {
	mu      sync.RWMutex
	byOwner map[string]map[string]Entry // ownerID -> fingerprint -> entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOwner: make(map[string]map[string]Entry)}
}

// Put stores an entry, replacing any existing entry with the same
// fingerprint for the same owner.
func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.byOwner[e.OwnerID]
	if !ok {
		owner = make(map[string]Entry)
		s.byOwner[e.OwnerID] = owner
	}
	owner[e.Fingerprint] = e
	return nil
}

// GetByFingerprint returns the owner's entry for the fingerprint, or
// ErrNotFound.
func (s *MemoryStore) GetByFingerprint(_ context.Context, ownerID, fingerprint string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byOwner[ownerID][fingerprint]; ok {
		return e, nil
	}
	return Entry{}, ErrNotFound
}

// ListByOwner returns all entries stored for an owner.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.byOwner[ownerID]))
	for _, e := range s.byOwner[ownerID] {
		entries = append(entries, e)
	}
	return entries, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
