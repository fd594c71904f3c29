// Package hnsw implements the vector index backend on coder/hnsw
// navigable small-world graphs, one graph per user.
package hnsw

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/mnemora/mnemora-go-sdk/memory"
)

// Backend implements memory.IndexBackend using per-user HNSW graphs.
type Backend struct {
	dim   int
	mu    sync.Mutex
	users map[string]*hnsw.Graph[string]
}

var _ memory.IndexBackend = (*Backend)(nil)

// New creates a backend for vectors of the given dimension.
func New(dim int) *Backend {
	return &Backend{
		dim:   dim,
		users: make(map[string]*hnsw.Graph[string]),
	}
}

// Insert adds one vector under the user's namespace. The text is unused;
// the graph holds only IDs and vectors.
func (b *Backend) Insert(ctx context.Context, userID, id, text string, vector []float32) error {
	if len(vector) != b.dim {
		return fmt.Errorf("vector has %d dimensions, want %d", len(vector), b.dim)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.users[userID]
	if !ok {
		g = hnsw.NewGraph[string]()
		b.users[userID] = g
	}
	g.Add(hnsw.MakeNode(id, vector))
	return nil
}

// Remove deletes one vector. Unknown users and IDs are not an error.
func (b *Backend) Remove(ctx context.Context, userID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.users[userID]; ok {
		g.Delete(id)
	}
	return nil
}

// Drop discards the user's entire namespace.
func (b *Backend) Drop(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, userID)
	return nil
}

// Candidates returns up to k cosine-ranked hits for the query vector.
// HNSW search is approximate; cosine scores are recomputed exactly from
// the node vectors before ranking.
func (b *Backend) Candidates(ctx context.Context, userID string, query []float32, k int) ([]memory.Candidate, error) {
	if len(query) != b.dim {
		return nil, fmt.Errorf("query has %d dimensions, want %d", len(query), b.dim)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.users[userID]
	if !ok || g.Len() == 0 {
		return nil, nil
	}
	if k > g.Len() {
		k = g.Len()
	}

	neighbors := g.Search(query, k)
	cands := make([]memory.Candidate, 0, len(neighbors))
	for _, node := range neighbors {
		cands = append(cands, memory.Candidate{
			ID:     node.Key,
			Cosine: memory.Cosine(query, node.Value),
		})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Cosine > cands[j].Cosine
	})
	return cands, nil
}
