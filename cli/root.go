// Package cli implements the mnemora CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/mnemora/mnemora-go-sdk/engine"
	"github.com/mnemora/mnemora-go-sdk/memory"
	"github.com/mnemora/mnemora-go-sdk/memory/embedder/mock"
	openaiembed "github.com/mnemora/mnemora-go-sdk/memory/embedder/openai"
	"github.com/mnemora/mnemora-go-sdk/memory/index/chromem"
	"github.com/mnemora/mnemora-go-sdk/memory/store/sqlite"
	anthropicsynth "github.com/mnemora/mnemora-go-sdk/memory/synth/anthropic"
	openaisynth "github.com/mnemora/mnemora-go-sdk/memory/synth/openai"
)

var (
	dbPath     string
	configPath string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mnemora",
	Short: "Long-term memory for conversational agents",
	Long: "Mnemora stores conversation memories, recalls them by blended relevance\n" +
		"and synthesizes per-user profiles. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MNEMORA_DB or ~/.mnemora/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config path")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	cobra.OnInitialize(func() {
		_ = godotenv.Load()
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	})
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("MNEMORA_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mnemora", "memory.db")
}

// buildEngine wires the engine from flags and environment. The embedder
// and synthesizer follow the available API keys; with no keys at all the
// deterministic mock embedder is used and synthesis is disabled.
func buildEngine() (*engine.Engine, error) {
	cfg, err := memory.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(getDBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var embedder memory.Embedder
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey != "" {
		client := openai.NewClient(openaiKey)
		e := openaiembed.New(client, os.Getenv("MNEMORA_EMBED_MODEL"))
		cfg.Dimension = e.Dimensions()
		embedder = e
	} else {
		embedder = mock.New(cfg.Dimension)
	}

	var synth memory.Synthesizer
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		client := anthropic.NewClient(option.WithAPIKey(key))
		synth = anthropicsynth.New(client, os.Getenv("MNEMORA_SYNTH_MODEL"))
	} else if openaiKey != "" {
		synth = openaisynth.New(openai.NewClient(openaiKey), os.Getenv("MNEMORA_SYNTH_MODEL"))
	}

	return engine.New(store, chromem.New(), embedder, synth, cfg), nil
}

// withEngine runs fn against a freshly built engine with the user's
// index rebuilt from the store, and closes it afterwards. The CLI is a
// new process each run, so the in-memory index starts empty.
func withEngine(cmd *cobra.Command, userID string, fn func(*engine.Engine) error) {
	eng, err := buildEngine()
	if err != nil {
		exitErr("build engine", err)
	}
	defer eng.Close()

	if userID != "" {
		if err := eng.Rebuild(cmd.Context(), userID); err != nil {
			exitErr("rebuild index", err)
		}
	}
	if err := fn(eng); err != nil {
		exitErr(cmd.Name(), err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
