package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rowandev/apilot/internal/similarity"
	"go.uber.org/zap"
)

// ResponseCache decides hit or miss for incoming requests: exact
// fingerprint match first, then an owner-scoped similarity scan over
// stored entries. Scans never cross owner boundaries.
type ResponseCache struct {
	store   Store
	matcher *similarity.Matcher
	logger  *zap.Logger
}

// New creates a ResponseCache over the given store and matcher.
func New(store Store, matcher *similarity.Matcher, logger *zap.Logger) *ResponseCache {
	return &ResponseCache{store: store, matcher: matcher, logger: logger}
}

// Get looks up a cached response for the request text. The bypass flag
// forces a miss before either lookup path runs, for cache busting. A miss
// is ErrNotFound; any other error is a backend failure the caller can
// distinguish with errors.Is.
func (c *ResponseCache) Get(ctx context.Context, text string, reqContext map[string]string, ownerID string, bypass bool) (Entry, error) {
	if bypass {
		return Entry{}, ErrNotFound
	}

	tokens := c.matcher.Normalize(text)
	fp := Fingerprint(tokens, reqContext)

	entry, err := c.store.GetByFingerprint(ctx, ownerID, fp)
	if err == nil {
		c.logger.Debug("cache hit (exact)",
			zap.String("owner", ownerID), zap.String("fingerprint", fp))
		return entry, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Entry{}, fmt.Errorf("exact lookup: %w", err)
	}

	// Fuzzy fallback: only high-tier matches are safe to reuse.
	scored, err := c.scanSimilar(ctx, tokens, ownerID)
	if err != nil {
		return Entry{}, fmt.Errorf("similarity scan: %w", err)
	}
	opts := c.matcher.Options()
	if len(scored) > 0 && scored[0].Score >= opts.HighThreshold {
		c.logger.Debug("cache hit (similarity)",
			zap.String("owner", ownerID),
			zap.Float64("score", scored[0].Score),
			zap.String("matched_request", scored[0].Entry.Request))
		return scored[0].Entry, nil
	}
	if len(scored) > 0 {
		c.logger.Debug("cache near-miss",
			zap.String("owner", ownerID),
			zap.Float64("best_score", scored[0].Score),
			zap.String("tier", string(c.matcher.Tier(scored[0].Score))))
	}
	return Entry{}, ErrNotFound
}

// Set stores a response for the request text under the owner.
func (c *ResponseCache) Set(ctx context.Context, text string, reqContext map[string]string, ownerID, response string) (Entry, error) {
	tokens := c.matcher.Normalize(text)
	entry := Entry{
		ID:          uuid.New().String(),
		Fingerprint: Fingerprint(tokens, reqContext),
		OwnerID:     ownerID,
		Request:     text,
		Tokens:      tokens,
		Response:    response,
		Context:     reqContext,
		CreatedAt:   time.Now(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("store entry: %w", err)
	}
	return entry, nil
}

// FindSimilar returns the owner's entries scoring at or above the low
// threshold against the message, ordered by descending score. Callers gate
// reuse on tier; this method reports everything worth inspecting.
func (c *ResponseCache) FindSimilar(ctx context.Context, message, ownerID string) ([]ScoredEntry, error) {
	scored, err := c.scanSimilar(ctx, c.matcher.Normalize(message), ownerID)
	if err != nil {
		return nil, fmt.Errorf("similarity scan: %w", err)
	}
	opts := c.matcher.Options()
	filtered := scored[:0]
	for _, se := range scored {
		if se.Score >= opts.LowThreshold {
			filtered = append(filtered, se)
		}
	}
	return filtered, nil
}

// scanSimilar scores every entry the owner has stored. The scan is bounded
// by token-count products per entry, so no cancellation point is needed
// mid-computation.
func (c *ResponseCache) scanSimilar(ctx context.Context, tokens []similarity.Token, ownerID string) ([]ScoredEntry, error) {
	entries, err := c.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredEntry, 0, len(entries))
	for _, e := range entries {
		score := c.matcher.SimilarityTokens(tokens, e.Tokens)
		if score > 0 {
			scored = append(scored, ScoredEntry{Entry: e, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		// Tie-break on recency then ID so ordering never depends on
		// store iteration order.
		if !scored[i].Entry.CreatedAt.Equal(scored[j].Entry.CreatedAt) {
			return scored[i].Entry.CreatedAt.After(scored[j].Entry.CreatedAt)
		}
		return scored[i].Entry.ID < scored[j].Entry.ID
	})
	return scored, nil
}
