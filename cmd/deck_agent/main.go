// Package main provides the entry point for the deck agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "deck_agent",
	Short: "Deck Agent presentation generator",
	Long:  "Deck Agent turns markdown or HTML source material into a slide deck by editing the slides of a reference presentation template.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
