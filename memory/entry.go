package memory

import "time"

// Kind tags the origin of a memory entry.
type Kind string

const (
	// KindRaw is a raw conversation fragment.
	KindRaw Kind = "raw"

	// KindSummary is a conversation-level summary.
	KindSummary Kind = "summary"

	// KindInsight is a synthesized insight (compacted knowledge).
	// Insights are exempt from age-based eviction.
	KindInsight Kind = "insight"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRaw, KindSummary, KindInsight:
		return true
	}
	return false
}

// Entry is a single memory: a text fragment with its embedding and
// retrieval metadata. The vector is produced once at creation and never
// mutated; re-embedding creates a new entry.
type Entry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Text           string    `json:"text"`
	Vector         []float32 `json:"-"`
	Kind           Kind      `json:"kind"`
	Importance     float64   `json:"importance"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	AccessCount    int       `json:"access_count"`
}

// Profile is the synthesized behavioral/preference profile of a user.
// Each successful synthesis replaces the profile wholesale and strictly
// increments Version.
type Profile struct {
	UserID    string             `json:"user_id"`
	Summary   string             `json:"summary"`
	Traits    map[string]float64 `json:"traits"`
	Version   int                `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// UserStats summarizes a user's stored memories.
type UserStats struct {
	Entries        int          `json:"entries"`
	MeanImportance float64      `json:"mean_importance"`
	ByKind         map[Kind]int `json:"by_kind"`
	ProfileVersion int          `json:"profile_version"`
}
