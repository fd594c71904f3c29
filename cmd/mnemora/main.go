package main

import (
	"os"

	"github.com/mnemora/mnemora-go-sdk/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
