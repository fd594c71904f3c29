// Package chromem implements the vector index backend on chromem-go, a
// pure Go embedded vector database. Each user gets their own collection
// for namespace isolation.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mnemora/mnemora-go-sdk/memory"
)

// Backend implements memory.IndexBackend using chromem-go.
type Backend struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

var _ memory.IndexBackend = (*Backend)(nil)

// New creates an in-memory chromem backend.
func New() *Backend {
	return &Backend{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

// collection returns the user's collection, creating it on first use.
func (b *Backend) collection(userID string) (*chromem.Collection, error) {
	b.mu.RLock()
	col, ok := b.collections[userID]
	b.mu.RUnlock()
	if ok {
		return col, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if col, ok := b.collections[userID]; ok {
		return col, nil
	}

	// Embeddings are supplied by the caller; no embedding func and the
	// default cosine distance.
	col, err := b.db.CreateCollection(collectionName(userID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	b.collections[userID] = col
	return col, nil
}

// Insert adds one vector under the user's namespace.
func (b *Backend) Insert(ctx context.Context, userID, id, text string, vector []float32) error {
	col, err := b.collection(userID)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        id,
		Content:   text,
		Embedding: vector,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Remove deletes one vector. Unknown users and IDs are not an error.
func (b *Backend) Remove(ctx context.Context, userID, id string) error {
	b.mu.RLock()
	col, ok := b.collections[userID]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Drop discards the user's entire namespace.
func (b *Backend) Drop(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[userID]; !ok {
		return nil
	}
	delete(b.collections, userID)
	if err := b.db.DeleteCollection(collectionName(userID)); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Candidates returns up to k cosine-ranked hits for the query vector.
func (b *Backend) Candidates(ctx context.Context, userID string, query []float32, k int) ([]memory.Candidate, error) {
	b.mu.RLock()
	col, ok := b.collections[userID]
	b.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	// chromem rejects nResults above the collection size, and a
	// concurrent removal can shrink the collection between the count and
	// the query. Retry with a fresh count while it keeps shrinking; the
	// count only decreases, so this terminates.
	var results []chromem.Result
	for {
		count := col.Count()
		if count == 0 {
			return nil, nil
		}
		n := k
		if n > count {
			n = count
		}

		var err error
		results, err = col.QueryEmbedding(ctx, query, n, nil, nil)
		if err == nil {
			break
		}
		if col.Count() < count {
			continue
		}
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	cands := make([]memory.Candidate, len(results))
	for i, r := range results {
		cands[i] = memory.Candidate{ID: r.ID, Cosine: float64(r.Similarity)}
	}
	return cands, nil
}

func collectionName(userID string) string {
	return "user_" + userID
}
