package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemora/mnemora-go-sdk/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats <user>",
		Short: "Show memory statistics for a user",
		Args:  cobra.ExactArgs(1),
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	userID := args[0]

	withEngine(cmd, "", func(eng *engine.Engine) error {
		stats, err := eng.Stats(cmd.Context(), userID)
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(b))
		return nil
	})
}
