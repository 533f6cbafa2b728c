// Package cache implements the semantic response cache: exact fingerprint
// lookup backed by a pluggable entry store, with an owner-scoped similarity
// fallback scan for near-rephrasings of already-answered requests.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rowandev/apilot/internal/similarity"
)

// ErrNotFound is the cache miss sentinel. Callers distinguish it from
// backend failures with errors.Is so they can decide whether to proceed
// without the cache or abort.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is a stored request/response pair. Entries are read-only during
// similarity scans; creation and eviction go through the Store.
type Entry struct {
	ID          string             `json:"id"`
	Fingerprint string             `json:"fingerprint"`
	OwnerID     string             `json:"owner_id"`
	Request     string             `json:"request"`
	Tokens      []similarity.Token `json:"tokens"`
	Response    string             `json:"response"`
	Context     map[string]string  `json:"context,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ScoredEntry pairs an entry with its similarity score against a query.
type ScoredEntry struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// Store persists cache entries. GetByFingerprint returns ErrNotFound on a
// miss; any other error is a backend failure.
type Store interface {
	Put(ctx context.Context, e Entry) error
	GetByFingerprint(ctx context.Context, ownerID, fingerprint string) (Entry, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Entry, error)
	Close()
}
