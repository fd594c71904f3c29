package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mnemora/mnemora-go-sdk/memory"
)

func TestWriter_CommitAndRetrieve(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	w := r.writer()

	entry, err := w.Commit(ctx, "user1", "I decided to learn Go this year", memory.KindRaw)
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if entry.ID == "" {
		t.Error("Expected a generated entry ID")
	}
	if entry.Importance < 0.05 || entry.Importance > 1 {
		t.Errorf("Importance %v out of range", entry.Importance)
	}

	stored, err := r.store.Get(ctx, "user1", entry.ID)
	if err != nil {
		t.Fatalf("Failed to load committed entry: %v", err)
	}
	if stored.Text != entry.Text {
		t.Errorf("Stored text %q, want %q", stored.Text, entry.Text)
	}

	// The exact same text embeds identically, so it must rank first
	// with a near-perfect cosine component.
	hits, err := r.retriever().RetrieveRelevant(ctx, "user1", entry.Text, 3, 0)
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Expected at least one hit")
	}
	if hits[0].Entry.ID != entry.ID {
		t.Errorf("Top hit %s, want %s", hits[0].Entry.ID, entry.ID)
	}
	if hits[0].Cosine < 0.999 {
		t.Errorf("Self-similarity %v, want >= 0.999", hits[0].Cosine)
	}
}

func TestWriter_InvalidInput(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	w := r.writer()

	cases := []struct {
		name   string
		userID string
		text   string
		kind   memory.Kind
	}{
		{"blank text", "user1", "   ", memory.KindRaw},
		{"unknown kind", "user1", "hello", memory.Kind("bogus")},
		{"empty user", "", "hello", memory.KindRaw},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.Commit(ctx, tc.userID, tc.text, tc.kind)
			if !errors.Is(err, memory.ErrInvalidInput) {
				t.Errorf("Commit() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestWriter_EmbeddingOutage(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	w := memory.NewWriter(r.store, r.index, failingEmbedder{}, r.locks, r.cfg, nil)

	_, err := w.Commit(ctx, "user1", "this will not embed", memory.KindRaw)
	if !errors.Is(err, memory.ErrEmbeddingUnavailable) {
		t.Fatalf("Commit() error = %v, want ErrEmbeddingUnavailable", err)
	}

	// Nothing must be persisted on embedding failure.
	n, err := r.store.Count(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if n != 0 {
		t.Errorf("Store holds %d entries after failed commit, want 0", n)
	}
}

func TestWriter_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.cfg.Dimension = 16 // embedder still produces 384

	w := r.writer()
	_, err := w.Commit(ctx, "user1", "dimensions disagree", memory.KindRaw)
	if !errors.Is(err, memory.ErrEmbeddingUnavailable) {
		t.Fatalf("Commit() error = %v, want ErrEmbeddingUnavailable", err)
	}
}
