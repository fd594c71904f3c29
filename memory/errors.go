package memory

import "errors"

// Error taxonomy. Callers match with errors.Is; every failure here is
// recoverable and degrades to "no memory available this turn".
var (
	// ErrInvalidInput marks malformed caller input (blank text, unknown
	// kind). Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable is returned when the embedding provider
	// failed after the retry budget was exhausted. Nothing is persisted.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrSynthesisUnavailable is returned when the synthesis provider
	// failed after the retry budget was exhausted.
	ErrSynthesisUnavailable = errors.New("synthesis provider unavailable")

	// ErrSynthesisParse means the provider answered but the output could
	// not be mapped to the profile schema. The existing profile is left
	// unchanged.
	ErrSynthesisParse = errors.New("unparsable synthesis output")

	// ErrNotFound marks an absent profile or entry. "Not yet synthesized"
	// is not an error condition; callers treat it as an empty profile.
	ErrNotFound = errors.New("not found")
)
