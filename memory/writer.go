package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Writer is the ingestion path: it embeds new conversation text, scores
// its importance and commits it as an entry.
type Writer struct {
	store    Store
	index    *Index
	embedder Embedder
	cfg      *Config
	locks    *UserLocks
	logger   *slog.Logger
}

// NewWriter creates a writer. locks may be shared with the sweeper to
// serialize mutations per user; nil allocates a private set.
func NewWriter(store Store, index *Index, embedder Embedder, locks *UserLocks, cfg *Config, logger *slog.Logger) *Writer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if locks == nil {
		locks = NewUserLocks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:    store,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		locks:    locks,
		logger:   logger.With("component", "writer"),
	}
}

// Commit embeds text and persists it as a new entry for the user.
//
// Blank text and unknown kinds fail with ErrInvalidInput. Provider
// failures are retried with bounded exponential backoff; on exhaustion
// Commit fails with ErrEmbeddingUnavailable and nothing is persisted. If
// the store write succeeds but the index insert fails, the entry stays
// committed: the index is a cache and a rebuild recovers it.
func (w *Writer) Commit(ctx context.Context, userID, text string, kind Kind) (*Entry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	// Embed before taking the user lock: provider calls block and must
	// never be made under an exclusive lock.
	vector, err := callProvider(ctx, w.cfg.Provider, func(ctx context.Context) ([]float32, error) {
		return w.embedder.Embed(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(vector) != w.cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d",
			ErrEmbeddingUnavailable, len(vector), w.cfg.Dimension)
	}

	now := time.Now().UTC()
	e := &Entry{
		ID:             uuid.New().String(),
		UserID:         userID,
		Text:           text,
		Vector:         vector,
		Kind:           kind,
		Importance:     ScoreImportance(text, kind),
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	release := w.locks.Acquire(userID)
	defer release()

	if err := w.store.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("persist entry: %w", err)
	}
	if err := w.index.Insert(ctx, e); err != nil {
		// The store is the source of truth; a rebuild restores the hit.
		w.logger.Warn("index insert failed, entry remains rebuildable",
			"user", userID, "id", e.ID, "error", err)
	}

	w.logger.Debug("committed entry",
		"user", userID, "id", e.ID, "kind", kind, "importance", e.Importance)
	return e, nil
}
