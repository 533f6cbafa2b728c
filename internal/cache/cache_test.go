package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rowandev/apilot/internal/lexicon"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *ResponseCache {
	t.Helper()
	matcher := similarity.NewMatcher(lexicon.Builtin(), similarity.DefaultOptions(), zap.NewNop())
	return New(NewMemoryStore(), matcher, zap.NewNop())
}

func TestExactHit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "create user", nil, "u1", "user created"); err != nil {
		t.Fatalf("set: %v", err)
	}

	entry, err := c.Get(ctx, "create user", nil, "u1", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Response != "user created" {
		t.Errorf("response = %q, want %q", entry.Response, "user created")
	}
}

func TestFingerprintIgnoresWordOrderAndInflection(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "list the users", nil, "u1", "ok"); err != nil {
		t.Fatal(err)
	}
	// Same lemma set, different surface form: exact fingerprint path hits.
	if _, err := c.Get(ctx, "users list", nil, "u1", false); err != nil {
		t.Errorf("reordered request should hit exact path: %v", err)
	}
}

func TestSimilarityFallbackHit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "create user", nil, "u1", "user created"); err != nil {
		t.Fatal(err)
	}

	entry, err := c.Get(ctx, "add new user", nil, "u1", false)
	if err != nil {
		t.Fatalf("fuzzy get: %v", err)
	}
	if entry.Response != "user created" {
		t.Errorf("response = %q, want %q", entry.Response, "user created")
	}
}

func TestAntonymNeverHits(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "create user", nil, "u1", "user created"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "delete user", nil, "u1", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("antonym request must miss, got err=%v", err)
	}
}

func TestOwnerIsolation(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "create user", nil, "alice", "alice's response"); err != nil {
		t.Fatal(err)
	}

	// Identical text under a different owner misses on both paths.
	if _, err := c.Get(ctx, "create user", nil, "bob", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner exact lookup must miss, got err=%v", err)
	}
	scored, err := c.FindSimilar(ctx, "create user", "bob")
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("cross-owner scan returned %d entries, want 0", len(scored))
	}
}

func TestBypassForcesMiss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "create user", nil, "u1", "cached"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "create user", nil, "u1", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("bypass must force a miss, got err=%v", err)
	}
}

func TestMediumScoreDoesNotAutoReuse(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	// "create user" vs "create payment": exact verb, unrelated noun -> 0.5.
	if _, err := c.Set(ctx, "create user", nil, "u1", "cached"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "create payment", nil, "u1", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("sub-threshold match must miss, got err=%v", err)
	}

	// But FindSimilar still reports it for inspection.
	scored, err := c.FindSimilar(ctx, "create payment", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 1 {
		t.Fatalf("got %d scored entries, want 1", len(scored))
	}
	if scored[0].Score < 0.4 || scored[0].Score >= 0.8 {
		t.Errorf("score = %v, want in [0.4, 0.8)", scored[0].Score)
	}
}

func TestFindSimilarOrdering(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	seed := map[string]string{
		"create user":    "r1",
		"create account": "r2",
		"delete order":   "r3",
	}
	for req, resp := range seed {
		if _, err := c.Set(ctx, req, nil, "u1", resp); err != nil {
			t.Fatal(err)
		}
	}

	scored, err := c.FindSimilar(ctx, "add new user", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) == 0 {
		t.Fatal("expected scored entries")
	}
	for i := 1; i < len(scored); i++ {
		if scored[i].Score > scored[i-1].Score {
			t.Errorf("results not ordered by descending score: %v then %v",
				scored[i-1].Score, scored[i].Score)
		}
	}
	if scored[0].Entry.Request != "create user" {
		t.Errorf("best match = %q, want %q", scored[0].Entry.Request, "create user")
	}
}

func TestEndToEndScenario(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, err := c.Set(ctx, "create user", nil, "u1", "R"); err != nil {
		t.Fatal(err)
	}

	entry, err := c.Get(ctx, "add new user", nil, "u1", false)
	if err != nil {
		t.Fatalf("u1 fuzzy query should hit: %v", err)
	}
	if entry.Response != "R" {
		t.Errorf("response = %q, want R", entry.Response)
	}

	if _, err := c.Get(ctx, "add new user", nil, "u2", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("u2 query must miss, got err=%v", err)
	}
}

// failStore simulates a backend outage.
type failStore struct{}

func (failStore) Put(context.Context, Entry) error { return fmt.Errorf("backend down") }
func (failStore) GetByFingerprint(context.Context, string, string) (Entry, error) {
	return Entry{}, fmt.Errorf("backend down")
}
func (failStore) ListByOwner(context.Context, string) ([]Entry, error) {
	return nil, fmt.Errorf("backend down")
}
func (failStore) Close() {}

func TestBackendFailureIsNotAMiss(t *testing.T) {
	matcher := similarity.NewMatcher(lexicon.Builtin(), similarity.DefaultOptions(), zap.NewNop())
	c := New(failStore{}, matcher, zap.NewNop())

	_, err := c.Get(context.Background(), "create user", nil, "u1", false)
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("backend failure must be distinguishable from a miss")
	}
}

func TestContextChangesFingerprint(t *testing.T) {
	tokens := similarity.Normalize(lexicon.Builtin(), "create user")
	base := Fingerprint(tokens, nil)
	withCtx := Fingerprint(tokens, map[string]string{"api": "users-v2"})
	if base == withCtx {
		t.Error("context should change the fingerprint")
	}
	again := Fingerprint(tokens, map[string]string{"api": "users-v2"})
	if withCtx != again {
		t.Error("fingerprint must be deterministic")
	}
}
