package memory

import (
	"math"
	"time"
)

// Cosine computes the cosine similarity between two vectors: dot product
// divided by the product of Euclidean norms. Range [-1,1], higher is more
// similar. Mismatched or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// recencyDecay maps elapsed time since last access to (0,1]: 1 at zero
// elapsed, 0.5 after one half-life, decaying exponentially.
func recencyDecay(elapsed, halfLife time.Duration) float64 {
	if elapsed <= 0 {
		return 1
	}
	if halfLife <= 0 {
		return 0
	}
	return math.Exp2(-float64(elapsed) / float64(halfLife))
}

// blend combines score components with the given weights.
func blend(w Weights, cosine, decay, importance float64) float64 {
	return w.Similarity*cosine + w.Recency*decay + w.Importance*importance
}
