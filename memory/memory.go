package memory

import (
	"context"
	"time"
)

// Embedder converts text to vector embeddings. Implementations live in
// memory/embedder (mock, onnx, openai, cached). The same text must embed
// to a vector whose cosine similarity to itself is 1.0 within
// floating-point tolerance.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Synthesizer maps a prompt plus ordered text fragments to a
// natural-language result. Implementations wrap external model providers
// and are substitutable with test doubles.
type Synthesizer interface {
	Synthesize(ctx context.Context, prompt string, fragments []string) (string, error)
}

// ScanOrder selects the ordering of a store scan.
type ScanOrder int

const (
	// OrderCreatedDesc orders by creation time, newest first.
	OrderCreatedDesc ScanOrder = iota

	// OrderImportanceDesc orders by importance, highest first,
	// then by creation time descending.
	OrderImportanceDesc
)

// ScanOptions filter and order a per-user store scan.
type ScanOptions struct {
	Order ScanOrder
	Limit int       // 0 = no limit
	Since time.Time // zero = no age filter; otherwise created_at >= Since
}

// Store is the durable source of truth for entries and profiles, keyed by
// (user_id, id). The vector index is a derived view over it and can always
// be rebuilt from a scan. Concurrent readers are allowed; writers are
// serialized per user by the callers.
type Store interface {
	// Insert persists a new entry. The entry's vector must already be set.
	Insert(ctx context.Context, e *Entry) error

	// Get returns one entry or ErrNotFound.
	Get(ctx context.Context, userID, id string) (*Entry, error)

	// Delete removes entries by ID. Missing IDs are not an error.
	Delete(ctx context.Context, userID string, ids ...string) error

	// Scan returns a user's entries per the options.
	Scan(ctx context.Context, userID string, opts ScanOptions) ([]*Entry, error)

	// Count returns the number of entries for a user.
	Count(ctx context.Context, userID string) (int, error)

	// Users enumerates user IDs that have at least one entry.
	Users(ctx context.Context) ([]string, error)

	// TouchAccess records retrieval hits: increments access_count, sets
	// last_accessed_at and applies a saturating importance boost, all in
	// one write.
	TouchAccess(ctx context.Context, userID string, ids []string, boost float64, now time.Time) error

	// Profile returns the user's profile or ErrNotFound.
	Profile(ctx context.Context, userID string) (*Profile, error)

	// PutProfile replaces the user's profile wholesale.
	PutProfile(ctx context.Context, p *Profile) error

	// Stats summarizes a user's stored memories.
	Stats(ctx context.Context, userID string) (*UserStats, error)

	// Close releases resources.
	Close() error
}

// Candidate is a cosine-ranked index hit.
type Candidate struct {
	ID     string
	Cosine float64
}

// IndexBackend is a per-user cosine similarity index. Backends hold only
// lookup structures keyed by entry ID, never own entries, and may be
// dropped and regenerated from the Store at any time.
// Implementations: chromem (embedded vector DB), hnsw (graph index).
type IndexBackend interface {
	// Insert adds one vector under the user's namespace.
	Insert(ctx context.Context, userID, id, text string, vector []float32) error

	// Remove deletes one vector. Unknown IDs are not an error.
	Remove(ctx context.Context, userID, id string) error

	// Drop discards the user's entire namespace.
	Drop(ctx context.Context, userID string) error

	// Candidates returns up to k entries ranked by cosine similarity to
	// the query vector, highest first.
	Candidates(ctx context.Context, userID string, query []float32, k int) ([]Candidate, error)
}
