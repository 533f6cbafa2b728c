package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/rowandev/apilot/internal/similarity"
)

// Fingerprint derives the exact-match cache key from normalized request
// tokens plus selected context. Lemmas are sorted and deduplicated so word
// order and inflection don't fragment the key space; context pairs are
// canonicalized the same way.
func Fingerprint(tokens []similarity.Token, context map[string]string) string {
	lemmas := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if !seen[t.Lemma] {
			seen[t.Lemma] = true
			lemmas = append(lemmas, t.Lemma)
		}
	}
	sort.Strings(lemmas)

	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.Join(lemmas, "\x1f"))
	for _, k := range keys {
		b.WriteString("\x1e")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(context[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
