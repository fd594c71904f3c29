package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mnemora/mnemora-go-sdk/memory"
	"github.com/mnemora/mnemora-go-sdk/memory/embedder/mock"
	"github.com/mnemora/mnemora-go-sdk/memory/index/chromem"
	"github.com/mnemora/mnemora-go-sdk/memory/store/sqlite"
)

const testDims = 384

// testConfig returns defaults tuned for fast tests: no provider retries
// and no minimum score, since mock embeddings of distinct texts are
// near-orthogonal.
func testConfig() *memory.Config {
	cfg := memory.DefaultConfig()
	cfg.Provider.MaxAttempts = 1
	cfg.Provider.InitialBackoff = time.Millisecond
	cfg.Retrieval.MinScore = 0
	return cfg
}

type rig struct {
	store    memory.Store
	index    *memory.Index
	embedder memory.Embedder
	locks    *memory.UserLocks
	cfg      *memory.Config
}

func newRig(t *testing.T) *rig {
	t.Helper()
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := testConfig()
	index := memory.NewIndex(chromem.New(), store, cfg, nil)
	return &rig{
		store:    store,
		index:    index,
		embedder: mock.New(testDims),
		locks:    memory.NewUserLocks(),
		cfg:      cfg,
	}
}

func (r *rig) writer() *memory.Writer {
	return memory.NewWriter(r.store, r.index, r.embedder, r.locks, r.cfg, nil)
}

func (r *rig) retriever() *memory.Retriever {
	return memory.NewRetriever(r.store, r.index, r.embedder, r.cfg, nil)
}

func (r *rig) sweeper() *memory.Sweeper {
	return memory.NewSweeper(r.store, r.index, r.locks, r.cfg, nil)
}

// failingEmbedder always errors, simulating a provider outage.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider unreachable")
}

func (failingEmbedder) Dimensions() int { return testDims }

// fakeSynth returns canned synthesis output.
type fakeSynth struct {
	out string
	err error
}

func (f *fakeSynth) Synthesize(ctx context.Context, prompt string, fragments []string) (string, error) {
	return f.out, f.err
}
