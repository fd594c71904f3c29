package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemora/mnemora-go-sdk/engine"
	"github.com/mnemora/mnemora-go-sdk/memory"
)

var rememberKind string

func init() {
	cmd := &cobra.Command{
		Use:   "remember <user> <text>...",
		Short: "Store conversation text as a memory",
		Args:  cobra.MinimumNArgs(2),
		Run:   runRemember,
	}
	cmd.Flags().StringVarP(&rememberKind, "kind", "k", string(memory.KindRaw), "Memory kind: raw, summary or insight")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	userID := args[0]
	text := strings.Join(args[1:], " ")

	withEngine(cmd, userID, func(eng *engine.Engine) error {
		entry, err := eng.Remember(cmd.Context(), userID, text, memory.Kind(rememberKind))
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(map[string]any{
			"id":         entry.ID,
			"kind":       entry.Kind,
			"importance": entry.Importance,
			"created_at": entry.CreatedAt,
		}, "", "  ")
		fmt.Println(string(b))
		return nil
	})
}
