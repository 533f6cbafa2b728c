package lexicon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBuiltinNeverEmpty(t *testing.T) {
	c := Builtin()
	v, n, a := c.Size()
	if v == 0 || n == 0 || a == 0 {
		t.Fatalf("builtin corpus missing lemmas: verbs=%d nouns=%d adjectives=%d", v, n, a)
	}
}

func TestSynonymsBidirectional(t *testing.T) {
	c := Builtin()
	if !c.AreSynonyms("create", "add", Verb) {
		t.Error("create/add should be synonyms")
	}
	if !c.AreSynonyms("add", "create", Verb) {
		t.Error("synonym check should be symmetric")
	}
	if !c.AreSynonyms("delete", "remove", Verb) {
		t.Error("delete/remove should be synonyms")
	}
	if c.AreSynonyms("create", "delete", Verb) {
		t.Error("create/delete must not be synonyms")
	}
}

func TestAntonyms(t *testing.T) {
	cases := [][2]string{
		{"create", "delete"},
		{"add", "remove"},
		{"enable", "disable"},
		{"start", "stop"},
		{"encrypt", "decrypt"},
	}
	c := Builtin()
	for _, pair := range cases {
		if !c.AreAntonyms(pair[0], pair[1], Verb) {
			t.Errorf("%s/%s should be antonyms", pair[0], pair[1])
		}
		if !c.AreAntonyms(pair[1], pair[0], Verb) {
			t.Errorf("antonym check %s/%s should be symmetric", pair[1], pair[0])
		}
	}
}

func TestUnknownLemmaHasEmptyRelations(t *testing.T) {
	c := Builtin()
	if got := c.SynonymsOf("frobnicate", Verb); len(got) != 0 {
		t.Errorf("unknown lemma synonyms = %v, want empty", got)
	}
	if got := c.AntonymsOf("frobnicate", Verb); len(got) != 0 {
		t.Errorf("unknown lemma antonyms = %v, want empty", got)
	}
	if c.IsKnown("frobnicate") {
		t.Error("frobnicate should be unknown")
	}
}

func TestClassifyPriority(t *testing.T) {
	// A lemma registered as both verb and noun classifies as verb.
	c := NewCorpus([]SynonymGroup{
		{POS: Noun, Lemmas: []string{"request", "call"}},
		{POS: Verb, Lemmas: []string{"request", "ask"}},
	}, nil)
	if got := c.Classify("request"); got != Verb {
		t.Errorf("Classify(request) = %s, want verb", got)
	}
	if got := c.Classify("call"); got != Noun {
		t.Errorf("Classify(call) = %s, want noun", got)
	}
}

func TestOtherPOSMergesRelations(t *testing.T) {
	c := Builtin()
	if !c.AreSynonyms("create", "add", Other) {
		t.Error("Other POS lookup should find verb synonyms")
	}
	if !c.AreAntonyms("active", "inactive", Other) {
		t.Error("Other POS lookup should find adjective antonyms")
	}
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	doc := `{
		"synonyms": [{"pos": "verb", "lemmas": ["deploy", "release", "ship"]}],
		"antonyms": [{"pos": "verb", "a": "deploy", "b": "rollback"}]
	}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := NewFileProvider(path, zap.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.AreSynonyms("deploy", "ship", Verb) {
		t.Error("deploy/ship should be synonyms")
	}
	if !c.AreAntonyms("rollback", "deploy", Verb) {
		t.Error("deploy/rollback should be antonyms")
	}
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := NewFileProvider("/nonexistent/corpus.json", zap.NewNop()).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

type failingProvider struct{}

func (failingProvider) Name() string                          { return "failing" }
func (failingProvider) Load(context.Context) (*Corpus, error) { return nil, fmt.Errorf("boom") }

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }
func (slowProvider) Load(ctx context.Context) (*Corpus, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoadOrFallback(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	c := LoadOrFallback(ctx, failingProvider{}, time.Second, logger)
	if c == nil || !c.IsKnown("create") {
		t.Fatal("failing provider should fall back to builtin")
	}

	c = LoadOrFallback(ctx, slowProvider{}, 50*time.Millisecond, logger)
	if c == nil || !c.IsKnown("create") {
		t.Fatal("slow provider should fall back to builtin after timeout")
	}

	c = LoadOrFallback(ctx, nil, time.Second, logger)
	if c == nil || !c.IsKnown("create") {
		t.Fatal("nil provider should return builtin")
	}
}
