package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/mnemora/mnemora-go-sdk/memory/embedder/mock"
)

func TestEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := mock.New(0)

	a, err := e.Embed(ctx, "the same text")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	b, err := e.Embed(ctx, "the same text")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}

	other, err := e.Embed(ctx, "a different text")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different texts produced identical vectors")
	}
}

func TestEmbedder_UnitNorm(t *testing.T) {
	ctx := context.Background()
	e := mock.New(64)

	vec, err := e.Embed(ctx, "check the norm")
	if err != nil {
		t.Fatalf("Failed to embed: %v", err)
	}
	if len(vec) != 64 {
		t.Fatalf("Got %d dimensions, want 64", len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("Norm %v, want 1", math.Sqrt(norm))
	}
}

func TestEmbedder_DefaultDimensions(t *testing.T) {
	if got := mock.New(0).Dimensions(); got != 384 {
		t.Errorf("Default dimensions %d, want 384", got)
	}
	if got := mock.New(128).Dimensions(); got != 128 {
		t.Errorf("Dimensions %d, want 128", got)
	}
}
