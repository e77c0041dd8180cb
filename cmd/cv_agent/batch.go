package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-tailor/internal/config"
	"github.com/jonathan/cv-tailor/internal/observability"
	"github.com/jonathan/cv-tailor/internal/pipeline"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Tailor one CV against many job postings",
	Long: `Runs one tailoring session per job URL listed in the input file (one URL per line, # comments allowed).

Sessions run concurrently and never ask gap questions. Each session is persisted independently, so a failing URL does not affect the others.`,
	RunE: runBatchCmd,
}

var (
	batchConfigPath  string
	batchCV          string
	batchJobsPath    string
	batchUserID      string
	batchAPIKey      string
	batchDatabaseURL string
	batchDataDir     string
	batchConcurrency int
	batchVerbose     bool
)

func init() {
	batchCommand.Flags().StringVar(&batchConfigPath, "config", "", "Path to config.json file")
	batchCommand.Flags().StringVar(&batchCV, "cv", "", "Path to the raw CV file (.txt or .md)")
	batchCommand.Flags().StringVar(&batchJobsPath, "jobs", "", "Path to a file listing job URLs, one per line")
	batchCommand.Flags().StringVarP(&batchUserID, "user", "u", "", "Profile owner identifier")
	batchCommand.Flags().StringVar(&batchAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	batchCommand.Flags().StringVar(&batchDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	batchCommand.Flags().StringVar(&batchDataDir, "data-dir", "", "Local JSON storage directory (used when no database URL is set)")
	batchCommand.Flags().IntVar(&batchConcurrency, "concurrency", 3, "Maximum concurrent sessions")
	batchCommand.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(batchCommand)
}

// readJobURLs parses the jobs file: one URL per line, blank lines and
// #-comments skipped.
func readJobURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jobs file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("jobs file %s contains no URLs", path)
	}
	return urls, nil
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var cfg config.Config
	if batchConfigPath != "" {
		loaded, err := config.LoadConfig(batchConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = *loaded
	}

	if cmd.Flags().Changed("cv") {
		cfg.CV = batchCV
	}
	if cmd.Flags().Changed("user") {
		cfg.UserID = batchUserID
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = batchAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = batchDatabaseURL
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = batchDataDir
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = batchVerbose
	}
	cfg = cfg.MergeWithDefaults(config.Config{UserID: "local", RetryBudget: 3})
	// Batch runs never prompt on the terminal.
	cfg.Interactive = false

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if cfg.CV == "" {
		return fmt.Errorf("--cv is required (via flag or config)")
	}
	if batchJobsPath == "" {
		return fmt.Errorf("--jobs is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	urls, err := readJobURLs(batchJobsPath)
	if err != nil {
		return err
	}

	app, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	type outcome struct {
		url    string
		result *pipeline.Result
	}
	outcomes := make([]outcome, len(urls))

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(batchConcurrency)

	for i, url := range urls {
		i, url := i, url
		group.Go(func() error {
			result := app.orchestrator.Run(groupCtx, pipeline.Request{
				UserID: cfg.UserID,
				CVPath: cfg.CV,
				JobURL: url,
			})
			app.saveSessionRecord(groupCtx, result, cfg.UserID, url)

			mu.Lock()
			outcomes[i] = outcome{url: url, result: result}
			mu.Unlock()
			return nil
		})
	}
	// Sessions report failure through their result, so the group never
	// carries an error of its own.
	_ = group.Wait()

	printer := observability.NewPrinter(os.Stdout)
	var failed int
	for _, o := range outcomes {
		fmt.Fprintf(os.Stdout, "\n%s\n", o.url)
		if cfg.Verbose {
			printer.PrintGaps(o.result.Gaps, o.result.MatchScore)
		}
		printer.PrintResult(o.result)
		if o.result.Failed {
			failed++
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d/%d sessions completed\n", len(urls)-failed, len(urls))
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, len(urls))
	}
	return nil
}
