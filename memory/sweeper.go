package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// SweepStats reports what one sweep did.
type SweepStats struct {
	Scanned    int
	EvictedAge int
	EvictedCap int
}

func (s SweepStats) add(o SweepStats) SweepStats {
	return SweepStats{
		Scanned:    s.Scanned + o.Scanned,
		EvictedAge: s.EvictedAge + o.EvictedAge,
		EvictedCap: s.EvictedCap + o.EvictedCap,
	}
}

// Sweeper enforces per-user retention: a maximum entry age and a maximum
// entry count. Sweeps are idempotent; a second run with no intervening
// writes evicts nothing.
type Sweeper struct {
	store  Store
	index  *Index
	cfg    *Config
	locks  *UserLocks
	logger *slog.Logger
}

// NewSweeper creates a sweeper. locks should be shared with the writer so
// sweeps and commits for the same user never interleave.
func NewSweeper(store Store, index *Index, locks *UserLocks, cfg *Config, logger *slog.Logger) *Sweeper {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if locks == nil {
		locks = NewUserLocks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:  store,
		index:  index,
		cfg:    cfg,
		locks:  locks,
		logger: logger.With("component", "sweeper"),
	}
}

// Sweep evicts one user's expired and excess entries.
//
// Age eviction removes non-insight entries older than MaxAge: insights
// represent compacted knowledge and only fall to the count cap. Count
// eviction then removes the lowest-scoring entries (recency and
// importance, importance-weighted) until the user is within MaxEntries.
func (s *Sweeper) Sweep(ctx context.Context, userID string) (SweepStats, error) {
	release := s.locks.Acquire(userID)
	defer release()

	entries, err := s.store.Scan(ctx, userID, ScanOptions{Order: OrderCreatedDesc})
	if err != nil {
		return SweepStats{}, fmt.Errorf("sweep scan: %w", err)
	}
	stats := SweepStats{Scanned: len(entries)}

	now := time.Now().UTC()
	var evict []string
	var survivors []*Entry
	if s.cfg.Retention.MaxAge > 0 {
		cutoff := now.Add(-s.cfg.Retention.MaxAge)
		for _, e := range entries {
			if e.Kind != KindInsight && e.CreatedAt.Before(cutoff) {
				evict = append(evict, e.ID)
				continue
			}
			survivors = append(survivors, e)
		}
		stats.EvictedAge = len(evict)
	} else {
		survivors = entries
	}

	if max := s.cfg.Retention.MaxEntries; max > 0 && len(survivors) > max {
		type ranked struct {
			e     *Entry
			score float64
		}
		scored := make([]ranked, len(survivors))
		for i, e := range survivors {
			decay := recencyDecay(now.Sub(e.LastAccessedAt), s.cfg.RecencyHalfLife)
			scored[i] = ranked{e: e, score: blend(s.cfg.Retention.Weights, 0, decay, e.Importance)}
		}
		sort.SliceStable(scored, func(i, j int) bool {
			if scored[i].score != scored[j].score {
				return scored[i].score < scored[j].score
			}
			// Equal scores evict the older entry first.
			return scored[i].e.CreatedAt.Before(scored[j].e.CreatedAt)
		})
		excess := len(survivors) - max
		for _, r := range scored[:excess] {
			evict = append(evict, r.e.ID)
		}
		stats.EvictedCap = excess
	}

	if len(evict) == 0 {
		return stats, nil
	}

	if err := s.store.Delete(ctx, userID, evict...); err != nil {
		return stats, fmt.Errorf("sweep delete: %w", err)
	}
	if err := s.index.Remove(ctx, userID, evict...); err != nil {
		// Stale index hits are dropped at query time and cleaned up by
		// the next rebuild.
		s.logger.Warn("sweep index removal incomplete", "user", userID, "error", err)
	}

	s.logger.Info("sweep complete",
		"user", userID, "scanned", stats.Scanned,
		"evicted_age", stats.EvictedAge, "evicted_cap", stats.EvictedCap)
	return stats, nil
}

// SweepAll sweeps every user with stored entries. A failing user is
// logged and skipped; one bad namespace never aborts the pass.
func (s *Sweeper) SweepAll(ctx context.Context) (SweepStats, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("sweep users: %w", err)
	}
	var total SweepStats
	for _, userID := range users {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		stats, err := s.Sweep(ctx, userID)
		if err != nil {
			s.logger.Warn("sweep failed", "user", userID, "error", err)
			continue
		}
		total = total.add(stats)
	}
	return total, nil
}
