// Package similarity implements the deterministic lexical matcher used by
// the response cache: tokenization, suffix stemming, part-of-speech-aware
// synonym and antonym lookup, and best-match score aggregation.
package similarity

import (
	"strings"

	"github.com/rowandev/apilot/internal/lexicon"
)

// Token is a normalized word from a request text.
type Token struct {
	Text  string               `json:"text"`
	Lemma string               `json:"lemma"`
	POS   lexicon.PartOfSpeech `json:"pos"`
}

// stopwords are dropped during normalization: articles, prepositions,
// pronouns and auxiliary verbs carry no signal for request matching.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "am": true,
	"do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true,
	"will": true, "would": true, "can": true, "could": true,
	"shall": true, "should": true, "may": true, "might": true, "must": true,
	"to": true, "of": true, "in": true, "on": true, "at": true,
	"by": true, "for": true, "with": true, "from": true, "into": true,
	"as": true, "and": true, "or": true, "but": true, "if": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "me": true, "my": true, "your": true,
	"we": true, "they": true, "them": true, "he": true, "she": true,
	"please": true,
}

// suffixes tried in order during stemming.
var suffixes = []string{"ing", "ed", "s", "es"}

// Normalize splits text into normalized tokens: lowercased, punctuation
// stripped, stopwords removed, each remaining word stemmed and classified
// against the corpus. Empty or all-stopword input yields an empty slice.
func Normalize(corpus *lexicon.Corpus, text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})

	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		if w == "" || stopwords[w] {
			continue
		}
		lemma := stem(corpus, w)
		tokens = append(tokens, Token{
			Text:  w,
			Lemma: lemma,
			POS:   corpus.Classify(lemma),
		})
	}
	return tokens
}

// stem strips one common inflection suffix, keeping at least 3 characters
// so short words are never over-stemmed. When the stripped form is not in
// the corpus but restoring a trailing "e" produces a known lemma, the
// restored form wins ("creat" -> "create").
func stem(corpus *lexicon.Corpus, word string) string {
	if corpus.IsKnown(word) {
		return word
	}
	for _, suf := range suffixes {
		if !strings.HasSuffix(word, suf) {
			continue
		}
		stripped := word[:len(word)-len(suf)]
		if len(stripped) < 3 {
			continue
		}
		if !corpus.IsKnown(stripped) && corpus.IsKnown(stripped+"e") {
			return stripped + "e"
		}
		return stripped
	}
	return word
}
