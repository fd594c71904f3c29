package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemora/mnemora-go-sdk/engine"
)

var recallK int

func init() {
	cmd := &cobra.Command{
		Use:   "recall <user> <query>...",
		Short: "Recall memories relevant to a query",
		Args:  cobra.MinimumNArgs(2),
		Run:   runRecall,
	}
	cmd.Flags().IntVarP(&recallK, "top", "k", 0, "Result count (0 = configured default)")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	userID := args[0]
	query := strings.Join(args[1:], " ")

	withEngine(cmd, userID, func(eng *engine.Engine) error {
		hits, err := eng.RelevantMemories(cmd.Context(), userID, query, recallK)
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(b))
		return nil
	})
}
