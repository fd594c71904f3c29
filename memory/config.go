package memory

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Weights blend the components of a relevance score:
// blended = Similarity*cosine + Recency*decay + Importance*importance.
type Weights struct {
	Similarity float64 `yaml:"similarity"`
	Recency    float64 `yaml:"recency"`
	Importance float64 `yaml:"importance"`
}

// RetrievalConfig holds read-path defaults.
type RetrievalConfig struct {
	// DefaultK is the result count used when the caller passes k=0.
	DefaultK int `yaml:"default_k"`

	// MinScore drops results below this blended score.
	MinScore float64 `yaml:"min_score"`

	// AccessBoost is added to importance on every retrieval hit,
	// saturating at 1.0.
	AccessBoost float64 `yaml:"access_boost"`

	// Oversample widens the candidate fetch before blending so that
	// high-importance entries with middling cosine still surface.
	Oversample int `yaml:"oversample"`
}

// RetentionConfig holds sweeper limits.
type RetentionConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	MaxAge     time.Duration `yaml:"max_age"`
	Interval   time.Duration `yaml:"interval"`

	// Weights rank entries for count-cap eviction. Similarity is unused
	// (there is no query); Importance is weighted high so rarely-accessed
	// but important memories survive.
	Weights Weights `yaml:"weights"`
}

// SynthesisConfig controls profile synthesis.
type SynthesisConfig struct {
	// TopN caps how many entries feed one synthesis run.
	TopN int `yaml:"top_n"`

	// MaxAge bounds the selection window.
	MaxAge time.Duration `yaml:"max_age"`

	// Interval schedules background synthesis runs.
	Interval time.Duration `yaml:"interval"`

	// MinEntries skips synthesis for users with too little material.
	MinEntries int `yaml:"min_entries"`

	// EveryNCommits triggers an async synthesis after every Nth commit
	// for a user. 0 disables the trigger.
	EveryNCommits int `yaml:"every_n_commits"`

	// StoreInsight commits the synthesized summary back as an insight
	// entry.
	StoreInsight bool `yaml:"store_insight"`
}

// ProviderConfig bounds external provider calls.
type ProviderConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

// Config is the full engine configuration.
type Config struct {
	// Dimension is the embedding vector size. Every stored vector must
	// have exactly this length.
	Dimension int `yaml:"dimension"`

	// Weights blend retrieval scores.
	Weights Weights `yaml:"weights"`

	// RecencyHalfLife controls the exponential decay of the recency
	// term: an entry last accessed one half-life ago scores 0.5.
	RecencyHalfLife time.Duration `yaml:"recency_half_life"`

	Retrieval RetrievalConfig `yaml:"retrieval"`
	Retention RetentionConfig `yaml:"retention"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Provider  ProviderConfig  `yaml:"provider"`
}

// DefaultConfig returns production defaults. The blend weights follow the
// conventional similarity-dominant scheme (0.7/0.1/0.2).
func DefaultConfig() *Config {
	return &Config{
		Dimension:       384,
		Weights:         Weights{Similarity: 0.7, Recency: 0.1, Importance: 0.2},
		RecencyHalfLife: 72 * time.Hour,
		Retrieval: RetrievalConfig{
			DefaultK:    5,
			MinScore:    0.3,
			AccessBoost: 0.02,
			Oversample:  4,
		},
		Retention: RetentionConfig{
			MaxEntries: 1000,
			MaxAge:     90 * 24 * time.Hour,
			Interval:   6 * time.Hour,
			Weights:    Weights{Recency: 0.3, Importance: 0.7},
		},
		Synthesis: SynthesisConfig{
			TopN:          50,
			MaxAge:        30 * 24 * time.Hour,
			Interval:      12 * time.Hour,
			MinEntries:    5,
			EveryNCommits: 50,
			StoreInsight:  true,
		},
		Provider: ProviderConfig{
			Timeout:        10 * time.Second,
			MaxAttempts:    3,
			InitialBackoff: 200 * time.Millisecond,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults and applies
// environment overrides. An empty path returns defaults plus overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides selected fields from MNEMORA_* variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("MNEMORA_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Dimension = n
		}
	}
	if v := os.Getenv("MNEMORA_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retention.MaxEntries = n
		}
	}
	if v := os.Getenv("MNEMORA_PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Provider.Timeout = d
		}
	}
	if v := os.Getenv("MNEMORA_PROVIDER_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Provider.MaxAttempts = n
		}
	}
}

func (c *Config) validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", c.Dimension)
	}
	if c.Retention.MaxEntries <= 0 {
		return fmt.Errorf("retention.max_entries must be positive, got %d", c.Retention.MaxEntries)
	}
	if c.Provider.MaxAttempts <= 0 {
		return fmt.Errorf("provider.max_attempts must be positive, got %d", c.Provider.MaxAttempts)
	}
	if c.RecencyHalfLife <= 0 {
		return fmt.Errorf("recency_half_life must be positive, got %v", c.RecencyHalfLife)
	}
	return nil
}
