// Package engine composes the memory components into the public API a
// conversational application consumes: remember text, recall relevant
// memories, read the synthesized profile. It also schedules the
// background retention and synthesis jobs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mnemora/mnemora-go-sdk/memory"
)

// synthesisJobTimeout bounds one asynchronous profile synthesis run.
const synthesisJobTimeout = 2 * time.Minute

// Relevant is one recalled memory, shaped for prompt assembly.
type Relevant struct {
	Text  string
	Kind  memory.Kind
	Score float64
}

// Engine is the top-level memory engine.
type Engine struct {
	cfg    *memory.Config
	store  memory.Store
	index  *memory.Index
	logger *slog.Logger

	writer    *memory.Writer
	retriever *memory.Retriever
	synth     *memory.ProfileSynthesizer
	sweeper   *memory.Sweeper

	cron *cron.Cron
	wg   sync.WaitGroup

	mu      sync.Mutex
	commits map[string]int
	closed  bool
}

// Option configures the engine.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by the engine and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New assembles an engine from a store, an index backend and the two
// provider capabilities. synth may be nil, which disables profile
// synthesis; everything else keeps working.
func New(store memory.Store, backend memory.IndexBackend, embedder memory.Embedder, synth memory.Synthesizer, cfg *memory.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = memory.DefaultConfig()
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger

	locks := memory.NewUserLocks()
	index := memory.NewIndex(backend, store, cfg, logger)
	writer := memory.NewWriter(store, index, embedder, locks, cfg, logger)

	e := &Engine{
		cfg:       cfg,
		store:     store,
		index:     index,
		logger:    logger.With("component", "engine"),
		writer:    writer,
		retriever: memory.NewRetriever(store, index, embedder, cfg, logger),
		sweeper:   memory.NewSweeper(store, index, locks, cfg, logger),
		commits:   make(map[string]int),
	}
	if synth != nil {
		e.synth = memory.NewProfileSynthesizer(store, synth, writer, cfg, logger)
	}
	return e
}

// Remember commits one piece of conversation text as a memory. Every N
// commits for the same user (Synthesis.EveryNCommits) a profile
// synthesis is triggered in the background.
func (e *Engine) Remember(ctx context.Context, userID, text string, kind memory.Kind) (*memory.Entry, error) {
	entry, err := e.writer.Commit(ctx, userID, text, kind)
	if err != nil {
		return nil, err
	}

	if n := e.cfg.Synthesis.EveryNCommits; n > 0 && e.synth != nil {
		e.mu.Lock()
		e.commits[userID]++
		due := e.commits[userID] >= n
		if due {
			// Drop the counter entirely so the map stays bounded by
			// users with commits still pending a trigger.
			delete(e.commits, userID)
		}
		e.mu.Unlock()
		if due {
			e.TriggerSynthesis(userID)
		}
	}
	return entry, nil
}

// RelevantMemories returns up to k memories ranked by blended relevance
// to the query. k <= 0 selects the configured default. Failures that
// only degrade recall quality surface as an empty result where possible;
// provider outages return ErrEmbeddingUnavailable so the caller can
// decide to continue without memory.
func (e *Engine) RelevantMemories(ctx context.Context, userID, query string, k int) ([]Relevant, error) {
	if k <= 0 {
		k = e.cfg.Retrieval.DefaultK
	}
	scored, err := e.retriever.RetrieveRelevant(ctx, userID, query, k, e.cfg.Retrieval.MinScore)
	if err != nil {
		return nil, err
	}
	out := make([]Relevant, len(scored))
	for i, s := range scored {
		out[i] = Relevant{Text: s.Entry.Text, Kind: s.Entry.Kind, Score: s.Score}
	}
	return out, nil
}

// Profile returns the user's synthesized profile or memory.ErrNotFound.
func (e *Engine) Profile(ctx context.Context, userID string) (*memory.Profile, error) {
	return e.store.Profile(ctx, userID)
}

// Synthesize rebuilds the user's profile synchronously.
func (e *Engine) Synthesize(ctx context.Context, userID string) (*memory.Profile, error) {
	if e.synth == nil {
		return nil, fmt.Errorf("%w: no synthesizer configured", memory.ErrSynthesisUnavailable)
	}
	return e.synth.Synthesize(ctx, userID)
}

// TriggerSynthesis schedules an asynchronous profile synthesis for the
// user. Failures are logged, never surfaced; a user with too few
// memories is not an error.
func (e *Engine) TriggerSynthesis(userID string) {
	if e.synth == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), synthesisJobTimeout)
		defer cancel()
		if _, err := e.synth.Synthesize(ctx, userID); err != nil && !errors.Is(err, memory.ErrNotFound) {
			e.logger.Warn("background synthesis failed", "user", userID, "error", err)
		}
	}()
}

// Sweep runs retention for one user.
func (e *Engine) Sweep(ctx context.Context, userID string) (memory.SweepStats, error) {
	return e.sweeper.Sweep(ctx, userID)
}

// SweepAll runs retention for every user with stored entries.
func (e *Engine) SweepAll(ctx context.Context) (memory.SweepStats, error) {
	return e.sweeper.SweepAll(ctx)
}

// Rebuild regenerates the user's vector index from the store.
func (e *Engine) Rebuild(ctx context.Context, userID string) error {
	return e.index.Rebuild(ctx, userID)
}

// Stats summarizes a user's stored memories.
func (e *Engine) Stats(ctx context.Context, userID string) (*memory.UserStats, error) {
	return e.store.Stats(ctx, userID)
}

// Start launches the background jobs: periodic sweeping per
// Retention.Interval and a periodic synthesis pass per
// Synthesis.Interval. Intervals of zero disable the respective job.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != nil {
		return fmt.Errorf("engine already started")
	}
	e.cron = cron.New()

	if iv := e.cfg.Retention.Interval; iv > 0 {
		_, err := e.cron.AddFunc("@every "+iv.String(), func() {
			stats, err := e.sweeper.SweepAll(context.Background())
			if err != nil {
				e.logger.Warn("periodic sweep failed", "error", err)
				return
			}
			e.logger.Info("periodic sweep done",
				"scanned", stats.Scanned,
				"evicted_age", stats.EvictedAge, "evicted_cap", stats.EvictedCap)
		})
		if err != nil {
			return fmt.Errorf("schedule sweep: %w", err)
		}
	}

	if iv := e.cfg.Synthesis.Interval; iv > 0 && e.synth != nil {
		_, err := e.cron.AddFunc("@every "+iv.String(), func() {
			users, err := e.store.Users(context.Background())
			if err != nil {
				e.logger.Warn("synthesis pass user listing failed", "error", err)
				return
			}
			for _, userID := range users {
				e.TriggerSynthesis(userID)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule synthesis: %w", err)
		}
	}

	e.cron.Start()
	e.logger.Info("background jobs started",
		"sweep_interval", e.cfg.Retention.Interval,
		"synthesis_interval", e.cfg.Synthesis.Interval)
	return nil
}

// Close stops the background jobs, waits for in-flight synthesis runs
// and closes the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	c := e.cron
	e.cron = nil
	e.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	e.wg.Wait()
	return e.store.Close()
}
