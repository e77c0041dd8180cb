package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-tailor/internal/config"
	"github.com/jonathan/cv-tailor/internal/observability"
	"github.com/jonathan/cv-tailor/internal/pipeline"
	"github.com/jonathan/cv-tailor/internal/render"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full CV tailoring pipeline end-to-end",
	Long: `Orchestrates one tailoring session: ingestion -> job analysis -> interaction -> storage -> generation.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runCV          string
	runJob         string
	runJobURL      string
	runUserID      string
	runInteractive bool
	runAPIKey      string
	runModel       string
	runDatabaseURL string
	runDataDir     string
	runOutPath     string
	runVerbose     bool
	runJSONLogs    bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVar(&runCV, "cv", "", "Path to the raw CV file (.txt or .md)")
	runCommand.Flags().StringVarP(&runJob, "job", "j", "", "Path to job posting text file (mutually exclusive with --job-url)")
	runCommand.Flags().StringVar(&runJobURL, "job-url", "", "URL to fetch job posting from (mutually exclusive with --job)")
	runCommand.Flags().StringVarP(&runUserID, "user", "u", "", "Profile owner identifier")
	runCommand.Flags().BoolVarP(&runInteractive, "interactive", "i", false, "Answer gap questions on the terminal")
	runCommand.Flags().StringVar(&runModel, "model", "", "Completion model override")
	runCommand.Flags().StringVarP(&runOutPath, "out", "o", "", "Write the rendering payload JSON to this path")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")
	runCommand.Flags().BoolVar(&runJSONLogs, "json-logs", false, "Emit structured JSON logs")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Storage backend selection
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runCommand.Flags().StringVar(&runDataDir, "data-dir", "", "Local JSON storage directory (used when no database URL is set)")

	rootCmd.AddCommand(runCommand)
}

// loadRunConfig merges config file, CLI overrides and defaults the way
// the flags describe: explicit flags win over the file, the file wins
// over defaults.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("cv") {
		cfg.CV = runCV
	}
	if cmd.Flags().Changed("job") {
		cfg.Job = runJob
	}
	if cmd.Flags().Changed("job-url") {
		cfg.JobURL = runJobURL
	}
	if cmd.Flags().Changed("user") {
		cfg.UserID = runUserID
	}
	if cmd.Flags().Changed("interactive") {
		cfg.Interactive = runInteractive
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = runModel
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = runDataDir
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("json-logs") {
		cfg.JSONLogs = runJSONLogs
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		UserID:       "local",
		RetryBudget:  3,
		GapThreshold: 1,
	})

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if cfg.CV == "" {
		return cfg, fmt.Errorf("--cv is required (via flag or config)")
	}
	if cfg.Job == "" && cfg.JobURL == "" {
		return cfg, fmt.Errorf("either --job or --job-url must be provided (via flag or config)")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	req := pipeline.Request{
		UserID:      cfg.UserID,
		CVPath:      cfg.CV,
		JobURL:      cfg.JobURL,
		Interactive: cfg.Interactive,
	}
	if cfg.Job != "" {
		text, err := os.ReadFile(cfg.Job)
		if err != nil {
			return fmt.Errorf("failed to read job file: %w", err)
		}
		req.JobText = string(text)
	}

	result := app.orchestrator.Run(ctx, req)
	app.saveSessionRecord(ctx, result, cfg.UserID, cfg.JobURL)

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintJob(result.Job)
		printer.PrintGaps(result.Gaps, result.MatchScore)
		printer.PrintSessionLog(result.Log)
	}
	printer.PrintResult(result)

	if result.Failed {
		return fmt.Errorf("pipeline failed at %s stage: %s", result.FailedStage, result.ErrorMessage)
	}

	if runOutPath != "" && result.Payload != nil {
		if err := writePayload(result.Payload, runOutPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Rendering payload written to %s\n", runOutPath)
	} else if result.Resume != nil && cfg.Verbose {
		fmt.Fprintln(os.Stdout, render.RenderText(result.Resume))
	}
	return nil
}

func writePayload(payload *render.Payload, path string) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}
