package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retriever is the read path: it embeds a query, delegates ranking to the
// index and strengthens the memories it returns.
type Retriever struct {
	store    Store
	index    *Index
	embedder Embedder
	cfg      *Config
	logger   *slog.Logger
}

// NewRetriever creates a retriever.
func NewRetriever(store Store, index *Index, embedder Embedder, cfg *Config, logger *slog.Logger) *Retriever {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:    store,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With("component", "retriever"),
	}
}

// RetrieveRelevant returns up to k entries ranked by blended relevance to
// the query text, dropping results below minScore.
//
// k <= 0 and an empty index both yield an empty result, not an error.
// Every returned entry is strengthened: access count incremented,
// last-accessed updated, and importance boosted (saturating at 1.0), so
// used memories rank higher in future retrievals.
func (r *Retriever) RetrieveRelevant(ctx context.Context, userID, query string, k int, minScore float64) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	vector, err := callProvider(ctx, r.cfg.Provider, func(ctx context.Context) ([]float32, error) {
		return r.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	scored, err := r.index.Query(ctx, userID, vector, k)
	if err != nil {
		return nil, err
	}

	kept := scored[:0]
	for _, s := range scored {
		if s.Score >= minScore {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	boost := r.cfg.Retrieval.AccessBoost
	ids := make([]string, len(kept))
	for i, s := range kept {
		ids[i] = s.Entry.ID
	}
	if err := r.store.TouchAccess(ctx, userID, ids, boost, now); err != nil {
		// Strengthening is best-effort; the retrieval itself succeeded.
		r.logger.Warn("access touch failed", "user", userID, "error", err)
	} else {
		for _, s := range kept {
			s.Entry.AccessCount++
			s.Entry.LastAccessedAt = now
			s.Entry.Importance = saturate(s.Entry.Importance + boost)
		}
	}

	r.logger.Debug("retrieved memories", "user", userID, "hits", len(kept), "k", k)
	return kept, nil
}

func saturate(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
