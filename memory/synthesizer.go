package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// profilePrompt instructs the synthesis model to answer with the profile
// schema and nothing else. Parsing is strict; prose answers fail the run.
const profilePrompt = `Analyze the numbered conversation memories below and produce a user profile.

Instructions:
1. Summarize who this user is, what they care about and how they communicate, in 2-3 sentences.
2. Identify behavioral traits and preferences with a confidence weight between 0.0 and 1.0.

Respond with JSON only, no prose and no code fences:
{"summary": "...", "traits": {"trait_name": 0.0}}`

// ProfileSynthesizer folds a user's recent memories into an updated
// profile through the external synthesis capability.
type ProfileSynthesizer struct {
	store  Store
	synth  Synthesizer
	writer *Writer // optional: commits the summary back as an insight
	cfg    *Config
	logger *slog.Logger
}

// NewProfileSynthesizer creates a profile synthesizer. writer may be nil
// to disable insight write-back regardless of configuration.
func NewProfileSynthesizer(store Store, synth Synthesizer, writer *Writer, cfg *Config, logger *slog.Logger) *ProfileSynthesizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileSynthesizer{
		store:  store,
		synth:  synth,
		writer: writer,
		cfg:    cfg,
		logger: logger.With("component", "synthesizer"),
	}
}

// Synthesize builds a new profile from the user's most important recent
// memories and replaces the stored one with version incremented.
//
// Semantics are replace-or-nothing: provider failure
// (ErrSynthesisUnavailable) and unparsable output (ErrSynthesisParse)
// leave the existing profile untouched. A user with too few memories in
// the window fails with ErrNotFound.
func (p *ProfileSynthesizer) Synthesize(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	window := ScanOptions{
		Order: OrderImportanceDesc,
		Limit: p.cfg.Synthesis.TopN,
	}
	if p.cfg.Synthesis.MaxAge > 0 {
		window.Since = time.Now().UTC().Add(-p.cfg.Synthesis.MaxAge)
	}
	entries, err := p.store.Scan(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("select synthesis window: %w", err)
	}

	fragments := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Kind == KindInsight {
			// Feeding synthesized output back in compounds its own
			// phrasing; insights are the output of this process.
			continue
		}
		fragments = append(fragments, annotateFragment(e))
	}
	if len(fragments) < p.cfg.Synthesis.MinEntries {
		return nil, fmt.Errorf("%w: %d memories in window, need %d",
			ErrNotFound, len(fragments), p.cfg.Synthesis.MinEntries)
	}

	raw, err := callProvider(ctx, p.cfg.Provider, func(ctx context.Context) (string, error) {
		return p.synth.Synthesize(ctx, profilePrompt, fragments)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisUnavailable, err)
	}

	summary, traits, err := parseProfileOutput(raw)
	if err != nil {
		p.logger.Warn("synthesis output unparsable, profile unchanged",
			"user", userID, "error", err)
		return nil, err
	}

	version := 1
	prev, err := p.store.Profile(ctx, userID)
	switch {
	case err == nil:
		version = prev.Version + 1
	case errors.Is(err, ErrNotFound):
		// First synthesis for this user.
	default:
		return nil, fmt.Errorf("load previous profile: %w", err)
	}

	profile := &Profile{
		UserID:    userID,
		Summary:   summary,
		Traits:    traits,
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
	if err := p.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("store profile: %w", err)
	}
	p.logger.Info("profile synthesized",
		"user", userID, "version", version, "traits", len(traits), "window", len(fragments))

	if p.cfg.Synthesis.StoreInsight && p.writer != nil {
		if _, err := p.writer.Commit(ctx, userID, summary, KindInsight); err != nil {
			p.logger.Warn("insight write-back failed", "user", userID, "error", err)
		}
	}
	return profile, nil
}

// annotateFragment prefixes a fragment with its detected emotional
// register and topics so the model sees the heuristic signals too.
func annotateFragment(e *Entry) string {
	parts := []string{string(e.Kind)}
	if topics := Topics(e.Text); len(topics) > 0 {
		parts = append(parts, strings.Join(topics, ","))
	}
	parts = append(parts, strings.Join(Emotions(e.Text), ","))
	return fmt.Sprintf("[%s] %s", strings.Join(parts, "|"), e.Text)
}

// parseProfileOutput maps raw provider output to the profile schema.
// Code fences are tolerated; anything else non-conforming is rejected.
func parseProfileOutput(raw string) (string, map[string]float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out struct {
		Summary string             `json:"summary"`
		Traits  map[string]float64 `json:"traits"`
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrSynthesisParse, err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", nil, fmt.Errorf("%w: missing summary", ErrSynthesisParse)
	}
	if out.Traits == nil {
		out.Traits = map[string]float64{}
	}
	for name, weight := range out.Traits {
		if weight < 0 {
			out.Traits[name] = 0
		} else if weight > 1 {
			out.Traits[name] = 1
		}
	}
	return out.Summary, out.Traits, nil
}
