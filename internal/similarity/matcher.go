package similarity

import (
	"math"

	"github.com/rowandev/apilot/internal/lexicon"
	"go.uber.org/zap"
)

// Options holds the matcher's tunable constants. The defaults are
// calibration values; recalibrate them when swapping in a richer corpus.
type Options struct {
	SynonymScore    float64 `json:"synonym_score"`
	PrefixScore     float64 `json:"prefix_match_score"`
	PrefixMinLen    int     `json:"prefix_min_length"`
	HighThreshold   float64 `json:"high_threshold"`
	MediumThreshold float64 `json:"medium_threshold"`
	LowThreshold    float64 `json:"low_threshold"`
}

// DefaultOptions returns the calibrated defaults.
func DefaultOptions() Options {
	return Options{
		SynonymScore:    0.8,
		PrefixScore:     0.5,
		PrefixMinLen:    4,
		HighThreshold:   0.8,
		MediumThreshold: 0.6,
		LowThreshold:    0.4,
	}
}

// Tier is a named threshold band gating cache reuse.
type Tier string

const (
	// TierHigh scores are safe to reuse for read-style operations.
	TierHigh Tier = "high"
	// TierMedium scores may be reused for idempotent operations only.
	TierMedium Tier = "medium"
	// TierLow scores are never reused automatically; logged for tuning.
	TierLow Tier = "low"
	// TierNone scores carry no usable signal.
	TierNone Tier = "none"
)

// Matcher scores the semantic similarity of two request texts against an
// immutable corpus. All methods are pure functions of the corpus and their
// inputs, so a Matcher is safe for concurrent use without locking.
type Matcher struct {
	corpus *lexicon.Corpus
	opts   Options
	logger *zap.Logger
}

// NewMatcher creates a matcher over the given corpus.
func NewMatcher(corpus *lexicon.Corpus, opts Options, logger *zap.Logger) *Matcher {
	if opts.PrefixMinLen <= 0 {
		opts = DefaultOptions()
	}
	return &Matcher{corpus: corpus, opts: opts, logger: logger}
}

// Corpus returns the matcher's corpus.
func (m *Matcher) Corpus() *lexicon.Corpus { return m.corpus }

// Options returns the matcher's configuration.
func (m *Matcher) Options() Options { return m.opts }

// Normalize tokenizes text against the matcher's corpus.
func (m *Matcher) Normalize(text string) []Token {
	return Normalize(m.corpus, text)
}

// TokenSimilarity scores a single token pair in [0,1]. Rules apply in
// order, first match wins: exact 1.0, antonym 0.0, synonym, shared prefix.
// Antonym detection outranks the synonym and prefix heuristics so that
// opposite actions sharing a stem ("enable"/"disable") never score.
func (m *Matcher) TokenSimilarity(a, b Token) float64 {
	if a.Lemma == b.Lemma || a.Text == b.Text {
		return 1.0
	}
	if m.areAntonyms(a, b) {
		return 0.0
	}
	if m.corpus.AreSynonyms(a.Lemma, b.Lemma, a.POS) || m.corpus.AreSynonyms(b.Lemma, a.Lemma, b.POS) {
		return m.opts.SynonymScore
	}
	if sharedPrefixLen(a.Lemma, b.Lemma) >= m.opts.PrefixMinLen {
		return m.opts.PrefixScore
	}
	return 0.0
}

func (m *Matcher) areAntonyms(a, b Token) bool {
	return m.corpus.AreAntonyms(a.Lemma, b.Lemma, a.POS) ||
		m.corpus.AreAntonyms(b.Lemma, a.Lemma, b.POS)
}

// Similarity scores two texts in [0,1]. Deterministic and symmetric;
// identical non-empty texts score 1.0 and empty input scores 0.0.
func (m *Matcher) Similarity(text1, text2 string) float64 {
	return m.SimilarityTokens(m.Normalize(text1), m.Normalize(text2))
}

// SimilarityTokens scores two pre-normalized token sequences. Each token of
// the shorter sequence is aligned with its best-scoring counterpart in the
// longer one; the best-match scores are averaged over the shorter length.
// Any antonym pair across the two sequences short-circuits to 0.0.
func (m *Matcher) SimilarityTokens(s1, s2 []Token) float64 {
	if len(s1) == 0 || len(s2) == 0 {
		// Vacuous matches are rejected: an empty request must never hit.
		return 0.0
	}

	for _, a := range s1 {
		for _, b := range s2 {
			if m.areAntonyms(a, b) {
				return 0.0
			}
		}
	}

	shorter, longer := s1, s2
	if len(s2) < len(s1) {
		shorter, longer = s2, s1
	}

	score := m.bestMatchAverage(shorter, longer)
	if len(s1) == len(s2) {
		// Equal lengths make "shorter" ambiguous; score both directions
		// so the result does not depend on argument order.
		if rev := m.bestMatchAverage(longer, shorter); rev > score {
			score = rev
		}
	}
	return roundScore(clamp01(score))
}

// bestMatchAverage aligns each token of from with its best-scoring
// counterpart in to and averages the best scores over len(from).
func (m *Matcher) bestMatchAverage(from, to []Token) float64 {
	var total float64
	for _, a := range from {
		best := 0.0
		for _, b := range to {
			if s := m.TokenSimilarity(a, b); s > best {
				best = s
			}
		}
		total += best
	}
	return total / float64(len(from))
}

// IsSimilar reports whether the two texts score at or above threshold.
func (m *Matcher) IsSimilar(text1, text2 string, threshold float64) bool {
	return m.Similarity(text1, text2) >= threshold
}

// Tier maps a score onto its threshold band. Low-tier near-misses are
// logged at debug level for threshold tuning.
func (m *Matcher) Tier(score float64) Tier {
	switch {
	case score >= m.opts.HighThreshold:
		return TierHigh
	case score >= m.opts.MediumThreshold:
		return TierMedium
	case score >= m.opts.LowThreshold:
		m.logger.Debug("similarity near-miss", zap.Float64("score", score))
		return TierLow
	default:
		return TierNone
	}
}

func sharedPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// roundScore fixes scores to 3 decimal digits so repeated calls agree
// across floating-point environments.
func roundScore(x float64) float64 {
	return math.Round(x*1000) / 1000
}
