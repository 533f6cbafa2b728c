package e2e

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rowandev/apilot/internal/cache"
	"github.com/rowandev/apilot/internal/lexicon"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

// exerciseStore runs the store contract against any backend: round trip,
// miss sentinel, owner scoping, and upsert semantics.
func exerciseStore(t *testing.T, store cache.Store) {
	t.Helper()
	ctx := context.Background()
	corpus := lexicon.Builtin()

	tokens := similarity.Normalize(corpus, "create user")
	entry := cache.Entry{
		ID:          "11111111-1111-1111-1111-111111111111",
		Fingerprint: cache.Fingerprint(tokens, nil),
		OwnerID:     "alice",
		Request:     "create user",
		Tokens:      tokens,
		Response:    "user created",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.GetByFingerprint(ctx, "alice", entry.Fingerprint)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Response != "user created" || got.Request != "create user" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Tokens) != len(entry.Tokens) {
		t.Errorf("tokens lost in round trip: got %d, want %d", len(got.Tokens), len(entry.Tokens))
	}

	// Miss is the sentinel, not a generic error.
	if _, err := store.GetByFingerprint(ctx, "alice", "no-such-fingerprint"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("miss error = %v, want ErrNotFound", err)
	}

	// Owner scoping.
	if _, err := store.GetByFingerprint(ctx, "bob", entry.Fingerprint); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("cross-owner get must miss, got err=%v", err)
	}
	entries, err := store.ListByOwner(ctx, "bob")
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("bob sees %d of alice's entries", len(entries))
	}

	// Upsert replaces by (owner, fingerprint).
	entry.Response = "user created v2"
	if err := store.Put(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	entries, err = store.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("after upsert alice has %d entries, want 1", len(entries))
	}
	if entries[0].Response != "user created v2" {
		t.Errorf("upsert did not replace response: %q", entries[0].Response)
	}
}

func TestPostgresStore(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	dsn, cleanup, err := startPostgres(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	store, err := cache.NewPostgresStore(dsn, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Migrate(ctx, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	exerciseStore(t, store)
}

func TestRedisStore(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	url, cleanup, err := startRedis(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	store, err := cache.NewRedisStore(url, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestNeo4jCorpusProvider(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	uri, cleanup, err := startNeo4j(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	provider, err := lexicon.NewNeo4jProvider(uri, "", "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer provider.Close(ctx)

	groups := []lexicon.SynonymGroup{
		{POS: lexicon.Verb, Lemmas: []string{"create", "add", "insert"}},
		{POS: lexicon.Noun, Lemmas: []string{"user", "account"}},
	}
	pairs := []lexicon.AntonymPair{
		{POS: lexicon.Verb, A: "create", B: "delete"},
	}
	if err := provider.Seed(ctx, groups, pairs); err != nil {
		t.Fatalf("seed: %v", err)
	}

	corpus, err := provider.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !corpus.AreSynonyms("create", "add", lexicon.Verb) {
		t.Error("seeded synonyms not loaded")
	}
	if !corpus.AreAntonyms("delete", "create", lexicon.Verb) {
		t.Error("seeded antonyms not loaded (or not bidirectional)")
	}

	// The graph-backed corpus drives the matcher the same way builtin does.
	matcher := similarity.NewMatcher(corpus, similarity.DefaultOptions(), zap.NewNop())
	if score := matcher.Similarity("create user", "add account"); score < 0.8 {
		t.Errorf("graph corpus similarity = %v, want >= 0.8", score)
	}
	if score := matcher.Similarity("create user", "delete user"); score != 0.0 {
		t.Errorf("antonym similarity = %v, want 0.0", score)
	}
}

func TestCacheOverPostgres(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	dsn, cleanup, err := startPostgres(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	store, err := cache.NewPostgresStore(dsn, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.Migrate(ctx, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	matcher := similarity.NewMatcher(lexicon.Builtin(), similarity.DefaultOptions(), zap.NewNop())
	rc := cache.New(store, matcher, zap.NewNop())

	if _, err := rc.Set(ctx, "create user", nil, "u1", "user created"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Exact and fuzzy hits both survive the database round trip.
	if entry, err := rc.Get(ctx, "create user", nil, "u1", false); err != nil || entry.Response != "user created" {
		t.Fatalf("exact get = (%+v, %v)", entry, err)
	}
	if entry, err := rc.Get(ctx, "add new user", nil, "u1", false); err != nil || entry.Response != "user created" {
		t.Fatalf("fuzzy get = (%+v, %v)", entry, err)
	}
	if _, err := rc.Get(ctx, "delete user", nil, "u1", false); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("antonym get err = %v, want ErrNotFound", err)
	}
}
