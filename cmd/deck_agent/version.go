package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print the deck_agent version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("deck_agent %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCommand)
}
