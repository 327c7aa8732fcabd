package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/deck-agent/internal/config"
	"github.com/jonathan/deck-agent/internal/document"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/observability"
)

var buildDocumentCommand = &cobra.Command{
	Use:   "build-document",
	Short: "Extract a structured document from source material",
	Long:  "Runs only the ingestion and document extraction stages and writes the resulting document JSON, for inspecting what the planner would see.",
	RunE:  runBuildDocumentCmd,
}

var (
	bdSource    string
	bdSourceURL string
	bdImageDir  string
	bdMaxAtOnce int
	bdAPIKey    string
	bdOutput    string
	bdVerbose   bool
)

func init() {
	buildDocumentCommand.Flags().StringVarP(&bdSource, "source", "s", "", "Path to source markdown/HTML file (mutually exclusive with --source-url)")
	buildDocumentCommand.Flags().StringVar(&bdSourceURL, "source-url", "", "URL to fetch source material from (mutually exclusive with --source)")
	buildDocumentCommand.Flags().StringVar(&bdImageDir, "image-dir", "", "Directory holding images referenced by the source")
	buildDocumentCommand.Flags().IntVar(&bdMaxAtOnce, "max-at-once", 0, "Maximum concurrent extraction tasks (0 = unlimited)")
	buildDocumentCommand.Flags().StringVar(&bdAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	buildDocumentCommand.Flags().StringVarP(&bdOutput, "output", "o", ".", "Directory to write document.json to")
	buildDocumentCommand.Flags().BoolVarP(&bdVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(buildDocumentCommand)
}

func runBuildDocumentCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.Config{
		Source:    bdSource,
		SourceURL: bdSourceURL,
		ImageDir:  bdImageDir,
		MaxAtOnce: bdMaxAtOnce,
		APIKey:    bdAPIKey,
	}
	cfg.LoadEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Source == "" && cfg.SourceURL == "" {
		return fmt.Errorf("either --source or --source-url is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required (set --api-key or GEMINI_API_KEY)")
	}

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	models := llm.ModelSet{Language: client, Vision: client}

	markdown, err := loadSource(ctx, cfg)
	if err != nil {
		return err
	}
	doc, err := document.FromMarkdown(ctx, markdown, models, cfg.ImageDir, cfg.MaxAtOnce)
	if err != nil {
		return err
	}
	if bdVerbose {
		observability.NewPrinter(os.Stdout).PrintDocument(doc)
	}

	out := filepath.Join(bdOutput, "document.json")
	if err := writeJSON(out, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Extracted %d sections -> %s\n", len(doc.Sections), out)
	return nil
}
