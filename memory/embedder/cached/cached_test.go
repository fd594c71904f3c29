package cached_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/mnemora/mnemora-go-sdk/memory/embedder/cached"
	"github.com/mnemora/mnemora-go-sdk/memory/embedder/mock"
)

// countingEmbedder tracks how often the inner embedder is hit.
type countingEmbedder struct {
	inner *mock.Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

func TestEmbedder_PassthroughMatchesInner(t *testing.T) {
	ctx := context.Background()
	inner := mock.New(32)
	e, err := cached.New(inner, 100)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer e.Close()

	want, err := inner.Embed(ctx, "some text")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	got, err := e.Embed(ctx, "some text")
	if err != nil {
		t.Fatalf("Failed to embed through cache: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Cached vector differs at %d", i)
		}
	}
	if e.Dimensions() != 32 {
		t.Errorf("Dimensions %d, want 32", e.Dimensions())
	}
}

func TestEmbedder_StableAcrossRepeats(t *testing.T) {
	ctx := context.Background()
	counting := &countingEmbedder{inner: mock.New(32)}
	e, err := cached.New(counting, 100)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer e.Close()

	first, err := e.Embed(ctx, "repeated text")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	// Cache admission is asynchronous, so repeats may or may not hit the
	// inner embedder; the result must be identical either way.
	for i := 0; i < 10; i++ {
		got, err := e.Embed(ctx, "repeated text")
		if err != nil {
			t.Fatalf("Failed to embed repeat %d: %v", i, err)
		}
		for j := range first {
			if got[j] != first[j] {
				t.Fatalf("Repeat %d differs at %d", i, j)
			}
		}
	}
	if calls := counting.calls.Load(); calls < 1 || calls > 11 {
		t.Errorf("Inner embedder called %d times, want between 1 and 11", calls)
	}
}
