package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Scored is an index query result: an entry with its blended relevance
// score and the raw cosine component.
type Scored struct {
	Entry  *Entry
	Score  float64
	Cosine float64
}

// Index ranks a user's memories against a query vector. It wraps a
// pluggable cosine backend and blends similarity with recency and
// importance. The index is a pure derived structure: it holds nothing the
// store does not have, so crash recovery is discard-and-rebuild.
type Index struct {
	backend IndexBackend
	store   Store
	cfg     *Config
	logger  *slog.Logger
}

// NewIndex creates an index over the given backend and store.
func NewIndex(backend IndexBackend, store Store, cfg *Config, logger *slog.Logger) *Index {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		backend: backend,
		store:   store,
		cfg:     cfg,
		logger:  logger.With("component", "index"),
	}
}

// Insert adds an entry's vector to the user's namespace.
func (ix *Index) Insert(ctx context.Context, e *Entry) error {
	if err := ix.backend.Insert(ctx, e.UserID, e.ID, e.Text, e.Vector); err != nil {
		return fmt.Errorf("index insert: %w", err)
	}
	return nil
}

// Remove deletes entries from the user's namespace.
func (ix *Index) Remove(ctx context.Context, userID string, ids ...string) error {
	var firstErr error
	for _, id := range ids {
		if err := ix.backend.Remove(ctx, userID, id); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("index remove %s: %w", id, err)
		}
	}
	return firstErr
}

// Query returns the top-k entries by blended score for the query vector.
// k <= 0 and empty namespaces yield an empty result, not an error. Ties
// break by creation time, most recent first.
func (ix *Index) Query(ctx context.Context, userID string, query []float32, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}

	// Oversample so high-importance entries with middling cosine can
	// still make the cut after blending.
	oversample := ix.cfg.Retrieval.Oversample
	if oversample < 1 {
		oversample = 1
	}
	cands, err := ix.backend.Candidates(ctx, userID, query, k*oversample)
	if err != nil {
		return nil, fmt.Errorf("index candidates: %w", err)
	}
	if len(cands) == 0 {
		return nil, nil
	}

	now := time.Now()
	scored := make([]Scored, 0, len(cands))
	for _, c := range cands {
		e, err := ix.store.Get(ctx, userID, c.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Stale index hit; the store is authoritative.
				ix.logger.Debug("dropping stale index hit", "user", userID, "id", c.ID)
				continue
			}
			return nil, fmt.Errorf("index hydrate %s: %w", c.ID, err)
		}
		decay := recencyDecay(now.Sub(e.LastAccessedAt), ix.cfg.RecencyHalfLife)
		scored = append(scored, Scored{
			Entry:  e,
			Score:  blend(ix.cfg.Weights, c.Cosine, decay, e.Importance),
			Cosine: c.Cosine,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Entry.CreatedAt.After(scored[j].Entry.CreatedAt)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Rebuild discards the user's namespace and repopulates it from the
// store. Given an unchanged store, queries rank identically before and
// after a rebuild.
func (ix *Index) Rebuild(ctx context.Context, userID string) error {
	if err := ix.backend.Drop(ctx, userID); err != nil {
		return fmt.Errorf("index drop: %w", err)
	}
	entries, err := ix.store.Scan(ctx, userID, ScanOptions{Order: OrderCreatedDesc})
	if err != nil {
		return fmt.Errorf("index rebuild scan: %w", err)
	}
	for _, e := range entries {
		if err := ix.backend.Insert(ctx, e.UserID, e.ID, e.Text, e.Vector); err != nil {
			return fmt.Errorf("index rebuild insert %s: %w", e.ID, err)
		}
	}
	ix.logger.Info("index rebuilt", "user", userID, "entries", len(entries))
	return nil
}
