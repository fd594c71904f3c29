package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemora/mnemora-go-sdk/engine"
	"github.com/mnemora/mnemora-go-sdk/memory"
)

var profileRefresh bool

func init() {
	cmd := &cobra.Command{
		Use:   "profile <user>",
		Short: "Show the synthesized user profile",
		Args:  cobra.ExactArgs(1),
		Run:   runProfile,
	}
	cmd.Flags().BoolVarP(&profileRefresh, "refresh", "r", false, "Synthesize a fresh profile first")

	RootCmd.AddCommand(cmd)
}

func runProfile(cmd *cobra.Command, args []string) {
	userID := args[0]

	withEngine(cmd, userID, func(eng *engine.Engine) error {
		if profileRefresh {
			if _, err := eng.Synthesize(cmd.Context(), userID); err != nil {
				return err
			}
		}
		profile, err := eng.Profile(cmd.Context(), userID)
		if errors.Is(err, memory.ErrNotFound) {
			fmt.Println("no profile yet; run with --refresh once enough memories exist")
			return nil
		}
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(profile, "", "  ")
		fmt.Println(string(b))
		return nil
	})
}
