package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemora/mnemora-go-sdk/engine"
	"github.com/mnemora/mnemora-go-sdk/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep [user]",
		Short: "Evict expired and excess memories (all users when no user given)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSweep,
	}

	RootCmd.AddCommand(cmd)
}

func runSweep(cmd *cobra.Command, args []string) {
	var userID string
	if len(args) == 1 {
		userID = args[0]
	}

	withEngine(cmd, userID, func(eng *engine.Engine) error {
		var stats memory.SweepStats
		var err error
		if userID != "" {
			stats, err = eng.Sweep(cmd.Context(), userID)
		} else {
			stats, err = eng.SweepAll(cmd.Context())
		}
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(b))
		return nil
	})
}
