package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mnemora/mnemora-go-sdk/memory"
	"github.com/mnemora/mnemora-go-sdk/memory/index/hnsw"
)

// seedEntry commits an entry with a controlled importance through the
// store and index directly, bypassing the writer's scoring.
func seedEntry(t *testing.T, r *rig, userID, text string, importance float64, createdAt time.Time) *memory.Entry {
	t.Helper()
	vec, err := r.embedder.Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	e := &memory.Entry{
		ID:             uuid.New().String(),
		UserID:         userID,
		Text:           text,
		Vector:         vec,
		Kind:           memory.KindRaw,
		Importance:     importance,
		CreatedAt:      createdAt,
		LastAccessedAt: createdAt,
	}
	if err := r.store.Insert(context.Background(), e); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := r.index.Insert(context.Background(), e); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}
	return e
}

func TestIndex_PureImportanceOrdering(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.cfg.Weights = memory.Weights{Similarity: 0, Recency: 0, Importance: 1}

	now := time.Now().UTC()
	high := seedEntry(t, r, "user1", "first memory", 0.9, now)
	mid := seedEntry(t, r, "user1", "second memory", 0.5, now)
	seedEntry(t, r, "user1", "third memory", 0.1, now)

	query, _ := r.embedder.Embed(ctx, "third memory")
	scored, err := r.index.Query(ctx, "user1", query, 2)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("Got %d results, want 2", len(scored))
	}
	if scored[0].Entry.ID != high.ID || scored[1].Entry.ID != mid.ID {
		t.Errorf("Order [%s %s], want [%s %s]",
			scored[0].Entry.ID, scored[1].Entry.ID, high.ID, mid.ID)
	}
}

func TestIndex_TieBreaksByNewest(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.cfg.Weights = memory.Weights{Similarity: 0, Recency: 0, Importance: 1}

	now := time.Now().UTC()
	older := seedEntry(t, r, "user1", "tied older", 0.5, now.Add(-time.Hour))
	newer := seedEntry(t, r, "user1", "tied newer", 0.5, now)

	query, _ := r.embedder.Embed(ctx, "anything")
	scored, err := r.index.Query(ctx, "user1", query, 2)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("Got %d results, want 2", len(scored))
	}
	if scored[0].Entry.ID != newer.ID || scored[1].Entry.ID != older.ID {
		t.Errorf("Tie broke [%s %s], want newest first [%s %s]",
			scored[0].Entry.ID, scored[1].Entry.ID, newer.ID, older.ID)
	}
}

func TestIndex_RebuildPreservesRanking(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	now := time.Now().UTC()
	texts := []string{"alpha memory", "beta memory", "gamma memory", "delta memory"}
	for i, text := range texts {
		seedEntry(t, r, "user1", text, 0.3+0.1*float64(i), now)
	}

	query, _ := r.embedder.Embed(ctx, "beta memory")
	before, err := r.index.Query(ctx, "user1", query, 3)
	if err != nil {
		t.Fatalf("Failed to query before rebuild: %v", err)
	}

	if err := r.index.Rebuild(ctx, "user1"); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}
	after, err := r.index.Query(ctx, "user1", query, 3)
	if err != nil {
		t.Fatalf("Failed to query after rebuild: %v", err)
	}

	if len(before) != len(after) {
		t.Fatalf("Result count changed: %d before, %d after", len(before), len(after))
	}
	for i := range before {
		if before[i].Entry.ID != after[i].Entry.ID {
			t.Errorf("Position %d: %s before, %s after rebuild",
				i, before[i].Entry.ID, after[i].Entry.ID)
		}
	}
}

func TestIndex_RebuildPreservesRankingHNSW(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.index = memory.NewIndex(hnsw.New(testDims), r.store, r.cfg, nil)

	now := time.Now().UTC()
	for i, text := range []string{"alpha memory", "beta memory", "gamma memory"} {
		seedEntry(t, r, "user1", text, 0.3+0.2*float64(i), now)
	}

	query, _ := r.embedder.Embed(ctx, "gamma memory")
	before, err := r.index.Query(ctx, "user1", query, 3)
	if err != nil {
		t.Fatalf("Failed to query before rebuild: %v", err)
	}
	if err := r.index.Rebuild(ctx, "user1"); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}
	after, err := r.index.Query(ctx, "user1", query, 3)
	if err != nil {
		t.Fatalf("Failed to query after rebuild: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("Result count changed: %d before, %d after", len(before), len(after))
	}
	for i := range before {
		if before[i].Entry.ID != after[i].Entry.ID {
			t.Errorf("Position %d: %s before, %s after rebuild",
				i, before[i].Entry.ID, after[i].Entry.ID)
		}
	}
}

func TestIndex_DropsStaleHits(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	now := time.Now().UTC()
	kept := seedEntry(t, r, "user1", "kept memory", 0.5, now)
	stale := seedEntry(t, r, "user1", "stale memory", 0.5, now)

	// Delete from the store only; the index still holds the vector.
	if err := r.store.Delete(ctx, "user1", stale.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	query, _ := r.embedder.Embed(ctx, "stale memory")
	scored, err := r.index.Query(ctx, "user1", query, 5)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	for _, s := range scored {
		if s.Entry.ID == stale.ID {
			t.Error("Stale entry surfaced in results")
		}
	}
	if len(scored) != 1 || scored[0].Entry.ID != kept.ID {
		t.Errorf("Expected only the kept entry, got %d results", len(scored))
	}
}

func TestIndex_UserIsolation(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	now := time.Now().UTC()
	seedEntry(t, r, "user1", "private to user1", 0.5, now)

	query, _ := r.embedder.Embed(ctx, "private to user1")
	scored, err := r.index.Query(ctx, "user2", query, 5)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("user2 saw %d of user1's entries", len(scored))
	}
}
