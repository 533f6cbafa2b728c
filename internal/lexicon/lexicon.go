// Package lexicon provides the word corpus backing the similarity matcher:
// part-of-speech-tagged lemma sets with synonym and antonym relations.
// A Corpus is immutable once loaded, so matchers can read it concurrently
// without locking.
package lexicon

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// PartOfSpeech classifies a lemma.
type PartOfSpeech string

const (
	Verb      PartOfSpeech = "verb"
	Noun      PartOfSpeech = "noun"
	Adjective PartOfSpeech = "adjective"
	Other     PartOfSpeech = "other"
)

// relKey addresses a relation set by lemma and part of speech.
type relKey struct {
	lemma string
	pos   PartOfSpeech
}

// Corpus holds lemma sets per part of speech plus synonym/antonym relations.
// It is read-only after construction.
type Corpus struct {
	verbs      map[string]struct{}
	nouns      map[string]struct{}
	adjectives map[string]struct{}
	synonyms   map[relKey]map[string]struct{}
	antonyms   map[relKey]map[string]struct{}
}

// SynonymGroup is a set of lemmas sharing a meaning under one part of speech.
type SynonymGroup struct {
	POS    PartOfSpeech `json:"pos"`
	Lemmas []string     `json:"lemmas"`
}

// AntonymPair records two lemmas with opposite meanings.
type AntonymPair struct {
	POS PartOfSpeech `json:"pos"`
	A   string       `json:"a"`
	B   string       `json:"b"`
}

// NewCorpus builds an immutable corpus from synonym groups and antonym pairs.
// Every lemma in a group becomes a synonym of every other lemma in that group,
// and antonym pairs are stored in both directions.
func NewCorpus(groups []SynonymGroup, antonyms []AntonymPair) *Corpus {
	c := &Corpus{
		verbs:      make(map[string]struct{}),
		nouns:      make(map[string]struct{}),
		adjectives: make(map[string]struct{}),
		synonyms:   make(map[relKey]map[string]struct{}),
		antonyms:   make(map[relKey]map[string]struct{}),
	}

	for _, g := range groups {
		for _, lemma := range g.Lemmas {
			c.addLemma(lemma, g.POS)
			for _, other := range g.Lemmas {
				if other == lemma {
					continue
				}
				c.addRelation(c.synonyms, lemma, other, g.POS)
			}
		}
	}

	for _, p := range antonyms {
		c.addLemma(p.A, p.POS)
		c.addLemma(p.B, p.POS)
		c.addRelation(c.antonyms, p.A, p.B, p.POS)
		c.addRelation(c.antonyms, p.B, p.A, p.POS)
	}

	return c
}

func (c *Corpus) addLemma(lemma string, pos PartOfSpeech) {
	switch pos {
	case Verb:
		c.verbs[lemma] = struct{}{}
	case Noun:
		c.nouns[lemma] = struct{}{}
	case Adjective:
		c.adjectives[lemma] = struct{}{}
	}
}

func (c *Corpus) addRelation(rel map[relKey]map[string]struct{}, lemma, other string, pos PartOfSpeech) {
	k := relKey{lemma: lemma, pos: pos}
	set, ok := rel[k]
	if !ok {
		set = make(map[string]struct{})
		rel[k] = set
	}
	set[other] = struct{}{}
}

// posSearchOrder is the lookup order when a token's part of speech is unknown.
var posSearchOrder = []PartOfSpeech{Verb, Noun, Adjective}

func (c *Corpus) related(rel map[relKey]map[string]struct{}, lemma string, pos PartOfSpeech) map[string]struct{} {
	if pos != Other {
		return rel[relKey{lemma: lemma, pos: pos}]
	}
	// Unknown POS: merge relation sets across all parts of speech.
	var merged map[string]struct{}
	for _, p := range posSearchOrder {
		set := rel[relKey{lemma: lemma, pos: p}]
		if len(set) == 0 {
			continue
		}
		if merged == nil {
			merged = make(map[string]struct{}, len(set))
		}
		for l := range set {
			merged[l] = struct{}{}
		}
	}
	return merged
}

// SynonymsOf returns the sorted synonyms of a lemma for the given part of
// speech. Unknown lemmas yield an empty slice.
func (c *Corpus) SynonymsOf(lemma string, pos PartOfSpeech) []string {
	return sortedLemmas(c.related(c.synonyms, lemma, pos))
}

// AntonymsOf returns the sorted antonyms of a lemma for the given part of
// speech. Unknown lemmas yield an empty slice.
func (c *Corpus) AntonymsOf(lemma string, pos PartOfSpeech) []string {
	return sortedLemmas(c.related(c.antonyms, lemma, pos))
}

// AreSynonyms reports whether b is a synonym of a under the given part of
// speech, checking both directions.
func (c *Corpus) AreSynonyms(a, b string, pos PartOfSpeech) bool {
	if _, ok := c.related(c.synonyms, a, pos)[b]; ok {
		return true
	}
	_, ok := c.related(c.synonyms, b, pos)[a]
	return ok
}

// AreAntonyms reports whether b is an antonym of a under the given part of
// speech, checking both directions.
func (c *Corpus) AreAntonyms(a, b string, pos PartOfSpeech) bool {
	if _, ok := c.related(c.antonyms, a, pos)[b]; ok {
		return true
	}
	_, ok := c.related(c.antonyms, b, pos)[a]
	return ok
}

// IsKnown reports whether the lemma appears in any part-of-speech set.
func (c *Corpus) IsKnown(lemma string) bool {
	return c.Classify(lemma) != Other
}

// Classify returns the part of speech of a lemma. When a lemma appears in
// several sets the first match wins, in verb, noun, adjective order.
func (c *Corpus) Classify(lemma string) PartOfSpeech {
	if _, ok := c.verbs[lemma]; ok {
		return Verb
	}
	if _, ok := c.nouns[lemma]; ok {
		return Noun
	}
	if _, ok := c.adjectives[lemma]; ok {
		return Adjective
	}
	return Other
}

// Size returns the number of distinct lemmas per part of speech.
func (c *Corpus) Size() (verbs, nouns, adjectives int) {
	return len(c.verbs), len(c.nouns), len(c.adjectives)
}

func sortedLemmas(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Provider loads a corpus from some backing source.
type Provider interface {
	Name() string
	Load(ctx context.Context) (*Corpus, error)
}

// LoadOrFallback loads a corpus from the provider within the given timeout.
// On failure or timeout it logs a warning and returns the builtin corpus,
// so callers always receive a usable corpus.
func LoadOrFallback(ctx context.Context, p Provider, timeout time.Duration, logger *zap.Logger) *Corpus {
	if p == nil {
		return Builtin()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		corpus *Corpus
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := p.Load(ctx)
		ch <- result{corpus: c, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			logger.Warn("corpus load failed, using builtin fallback",
				zap.String("provider", p.Name()), zap.Error(r.err))
			return Builtin()
		}
		v, n, a := r.corpus.Size()
		logger.Info("corpus loaded",
			zap.String("provider", p.Name()),
			zap.Int("verbs", v), zap.Int("nouns", n), zap.Int("adjectives", a))
		return r.corpus
	case <-ctx.Done():
		logger.Warn("corpus load timed out, using builtin fallback",
			zap.String("provider", p.Name()), zap.Duration("timeout", timeout))
		return Builtin()
	}
}
