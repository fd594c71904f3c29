package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
dimension: 768
weights:
  similarity: 0.5
  recency: 0.2
  importance: 0.3
retention:
  max_entries: 250
  max_age: 720h
synthesis:
  every_n_commits: 25
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Dimension != 768 {
		t.Errorf("Dimension %d, want 768", cfg.Dimension)
	}
	if cfg.Weights.Similarity != 0.5 {
		t.Errorf("Similarity weight %v, want 0.5", cfg.Weights.Similarity)
	}
	if cfg.Retention.MaxEntries != 250 {
		t.Errorf("MaxEntries %d, want 250", cfg.Retention.MaxEntries)
	}
	if cfg.Retention.MaxAge != 720*time.Hour {
		t.Errorf("MaxAge %v, want 720h", cfg.Retention.MaxAge)
	}
	if cfg.Synthesis.EveryNCommits != 25 {
		t.Errorf("EveryNCommits %d, want 25", cfg.Synthesis.EveryNCommits)
	}
	// Untouched fields keep their defaults.
	if cfg.Retrieval.DefaultK != 5 {
		t.Errorf("DefaultK %d, want default 5", cfg.Retrieval.DefaultK)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MNEMORA_DIMENSION", "1536")
	t.Setenv("MNEMORA_MAX_ENTRIES", "42")
	t.Setenv("MNEMORA_PROVIDER_TIMEOUT", "3s")
	t.Setenv("MNEMORA_PROVIDER_ATTEMPTS", "7")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Dimension != 1536 {
		t.Errorf("Dimension %d, want 1536", cfg.Dimension)
	}
	if cfg.Retention.MaxEntries != 42 {
		t.Errorf("MaxEntries %d, want 42", cfg.Retention.MaxEntries)
	}
	if cfg.Provider.Timeout != 3*time.Second {
		t.Errorf("Timeout %v, want 3s", cfg.Provider.Timeout)
	}
	if cfg.Provider.MaxAttempts != 7 {
		t.Errorf("MaxAttempts %d, want 7", cfg.Provider.MaxAttempts)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("dimension: -4\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for negative dimension")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
