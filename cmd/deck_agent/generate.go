package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/deck-agent/internal/config"
	"github.com/jonathan/deck-agent/internal/db"
	"github.com/jonathan/deck-agent/internal/document"
	"github.com/jonathan/deck-agent/internal/ingestion"
	"github.com/jonathan/deck-agent/internal/llm"
	"github.com/jonathan/deck-agent/internal/observability"
	"github.com/jonathan/deck-agent/internal/pipeline"
	"github.com/jonathan/deck-agent/internal/presentation"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate a presentation from source material",
	Long: `Runs the full generation pipeline: source ingestion -> document extraction -> outline planning -> per-slide layout selection, content generation, and template editing.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runGenerateCmd,
}

var (
	genConfigPath   string
	genSource       string
	genSourceURL    string
	genTemplate     string
	genInduction    string
	genImageDir     string
	genNumSlides    int
	genLanguage     string
	genRetryTimes   int
	genForcePages   bool
	genErrorExit    bool
	genMaxAtOnce    int
	genMaxPerSecond float64
	genAPIKey       string
	genDatabaseURL  string
	genOutputDir    string
	genVerbose      bool
)

func init() {
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCommand.Flags().StringVarP(&genSource, "source", "s", "", "Path to source markdown/HTML file (mutually exclusive with --source-url)")
	generateCommand.Flags().StringVar(&genSourceURL, "source-url", "", "URL to fetch source material from (mutually exclusive with --source)")
	generateCommand.Flags().StringVarP(&genTemplate, "template", "t", "", "Path to reference presentation JSON")
	generateCommand.Flags().StringVarP(&genInduction, "induction", "i", "", "Path to slide induction JSON")
	generateCommand.Flags().StringVar(&genImageDir, "image-dir", "", "Directory holding images referenced by the source")
	generateCommand.Flags().IntVarP(&genNumSlides, "num-slides", "n", 0, "Requested number of content slides")
	generateCommand.Flags().StringVarP(&genLanguage, "language", "l", "", "Target language id (defaults to the document language)")
	generateCommand.Flags().IntVar(&genRetryTimes, "retry-times", 0, "Retry budget for content and code-edit loops")
	generateCommand.Flags().BoolVar(&genForcePages, "force-pages", false, "Truncate the planned outline to the requested slide count")
	generateCommand.Flags().BoolVar(&genErrorExit, "error-exit", false, "Abort the run on the first failed slide instead of skipping it")
	generateCommand.Flags().IntVar(&genMaxAtOnce, "max-at-once", 0, "Maximum concurrent slide tasks (0 = unlimited)")
	generateCommand.Flags().Float64Var(&genMaxPerSecond, "max-per-second", 0, "Maximum slide task starts per second (0 = unlimited)")
	generateCommand.Flags().StringVarP(&genOutputDir, "output", "o", ".", "Directory to write presentation.json and history.json to")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCommand.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for artifact persistence
	generateCommand.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(generateCommand)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Source == "" && cfg.SourceURL == "" {
		return fmt.Errorf("either --source or --source-url is required")
	}
	if cfg.Template == "" || cfg.Induction == "" {
		return fmt.Errorf("--template and --induction are required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required (set --api-key or GEMINI_API_KEY)")
	}
	if cfg.NumSlides <= 0 {
		cfg.NumSlides = 10
	}

	printer := observability.NewPrinter(os.Stdout)

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	models := llm.ModelSet{Language: client, Vision: client}
	if err := models.TestConnections(ctx); err != nil {
		return fmt.Errorf("model connection check failed: %w", err)
	}

	markdown, err := loadSource(ctx, cfg)
	if err != nil {
		return err
	}

	var store *db.DB
	if cfg.DatabaseURL != "" {
		store, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	doc, err := document.FromMarkdown(ctx, markdown, models, cfg.ImageDir, cfg.MaxAtOnce)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		printer.PrintDocument(doc)
	}

	layouts, err := presentation.LoadInduction(cfg.Induction)
	if err != nil {
		return err
	}
	prs, err := presentation.Load(cfg.Template)
	if err != nil {
		return err
	}

	generator, err := pipeline.New(models, pipeline.Options{
		RetryTimes:       cfg.RetryTimes,
		ErrorExit:        cfg.ErrorExit,
		ForcePages:       cfg.ForcePages,
		MaxAtOnce:        cfg.MaxAtOnce,
		MaxPerSecond:     cfg.MaxPerSecond,
		Language:         cfg.Language,
		AutoLengthFactor: cfg.Language != "",
	})
	if err != nil {
		return err
	}
	if err := generator.SetReference(layouts, prs); err != nil {
		return err
	}

	runID := uuid.Nil
	if store != nil {
		source := cfg.Source
		if source == "" {
			source = cfg.SourceURL
		}
		runID, err = store.CreateRun(ctx, source, cfg.Template, cfg.NumSlides)
		if err != nil {
			return err
		}
		if err := store.SaveArtifact(ctx, runID, db.StepDocument, doc); err != nil {
			return err
		}
	}

	result, history, err := generator.GeneratePres(ctx, doc, cfg.NumSlides, nil)
	if err != nil {
		if store != nil {
			_ = store.CompleteRun(ctx, runID, db.StatusFailed)
		}
		return err
	}
	if cfg.Verbose {
		printer.PrintHistory(history)
	}

	if err := writeJSON(filepath.Join(genOutputDir, "presentation.json"), result); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(genOutputDir, "history.json"), history); err != nil {
		return err
	}

	if store != nil {
		if err := store.SaveArtifact(ctx, runID, db.StepPresentation, result); err != nil {
			return err
		}
		if err := store.SaveArtifact(ctx, runID, db.StepHistory, history); err != nil {
			return err
		}
		if err := store.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Generated %d slides -> %s\n", len(result.Slides), filepath.Join(genOutputDir, "presentation.json"))
	return nil
}

// resolveConfig merges the config file, explicit flags, and environment.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if genConfigPath != "" {
		loaded, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	flags := map[string]func(){
		"source":         func() { cfg.Source = genSource },
		"source-url":     func() { cfg.SourceURL = genSourceURL },
		"template":       func() { cfg.Template = genTemplate },
		"induction":      func() { cfg.Induction = genInduction },
		"image-dir":      func() { cfg.ImageDir = genImageDir },
		"num-slides":     func() { cfg.NumSlides = genNumSlides },
		"language":       func() { cfg.Language = genLanguage },
		"retry-times":    func() { cfg.RetryTimes = genRetryTimes },
		"force-pages":    func() { cfg.ForcePages = genForcePages },
		"error-exit":     func() { cfg.ErrorExit = genErrorExit },
		"max-at-once":    func() { cfg.MaxAtOnce = genMaxAtOnce },
		"max-per-second": func() { cfg.MaxPerSecond = genMaxPerSecond },
		"api-key":        func() { cfg.APIKey = genAPIKey },
		"db-url":         func() { cfg.DatabaseURL = genDatabaseURL },
		"verbose":        func() { cfg.Verbose = genVerbose },
	}
	for name, apply := range flags {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	cfg.LoadEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadSource(ctx context.Context, cfg config.Config) (string, error) {
	if cfg.SourceURL != "" {
		return ingestion.FromURL(ctx, cfg.SourceURL)
	}
	return ingestion.FromFile(cfg.Source)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
