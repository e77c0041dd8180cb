package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/config"
	"github.com/jonathan/cv-tailor/internal/db"
	"github.com/jonathan/cv-tailor/internal/fallback"
	"github.com/jonathan/cv-tailor/internal/fetch"
	"github.com/jonathan/cv-tailor/internal/ingest"
	"github.com/jonathan/cv-tailor/internal/llm"
	"github.com/jonathan/cv-tailor/internal/logger"
	"github.com/jonathan/cv-tailor/internal/pipeline"
	"github.com/jonathan/cv-tailor/internal/stages/generation"
	"github.com/jonathan/cv-tailor/internal/stages/ingestion"
	"github.com/jonathan/cv-tailor/internal/stages/interaction"
	"github.com/jonathan/cv-tailor/internal/stages/jobanalysis"
	"github.com/jonathan/cv-tailor/internal/stages/storage"
	"github.com/jonathan/cv-tailor/internal/vector"
)

// app bundles the wired pipeline and the resources it borrows.
type app struct {
	orchestrator *pipeline.Orchestrator
	registry     *agent.Registry
	store        db.ProfileStore
	client       *llm.GeminiClient
	log          *zap.Logger
}

// newApp wires the five stages from the merged configuration. The LLM
// client is optional: without an API key the pipeline still runs with the
// heuristic CV parser and an untailored resume.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	log, err := logger.New(cfg.JSONLogs, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var client *llm.GeminiClient
	var completer llm.Completer
	if cfg.APIKey != "" {
		llmCfg := llm.DefaultConfig()
		if cfg.Model != "" {
			llmCfg.Model = cfg.Model
		}
		client, err = llm.NewGeminiClient(ctx, llmCfg, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create completion client: %w", err)
		}
		completer = client
	} else {
		log.Warn("no API key configured, running without LLM assistance")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}

	fetcher := fetch.NewCachedFetcher(0, &fetch.Options{
		Timeout:   cfg.FetchTimeoutDuration(),
		UserAgent: fetch.DefaultUserAgent,
	})

	registry := agent.NewRegistry(log,
		ingestion.New(ingest.NewParser(nil, completer, log)),
		jobanalysis.New(completer, fetcher),
		interaction.New(completer, nil),
		storage.New(store, vector.NewMemoryStore()),
		generation.New(completer, fallback.NewEngine(cfg.MaxGrowth)),
	)

	opts := pipeline.Options{RetryBudget: cfg.RetryBudget, GapThreshold: cfg.GapThreshold}
	return &app{
		orchestrator: pipeline.NewOrchestrator(registry, opts, log),
		registry:     registry,
		store:        store,
		client:       client,
		log:          log,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (db.ProfileStore, error) {
	if cfg.DatabaseURL != "" {
		store, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return store, nil
	}

	dir := cfg.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			dir = ".cv-tailor"
		} else {
			dir = filepath.Join(home, ".cv-tailor")
		}
	}
	store, err := db.NewLocalStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store at %s: %w", dir, err)
	}
	return store, nil
}

// saveSessionRecord persists the run outcome through the storage stage.
// Best effort: a failure here never fails the session itself.
func (a *app) saveSessionRecord(ctx context.Context, result *pipeline.Result, userID, jobURL string) {
	record := result.SessionRecord(userID, jobURL)
	resp := a.registry.Invoke(ctx, agent.StageStorage, storage.ActionSaveSession, agent.Params{
		"record": record,
	})
	if !resp.OK() {
		a.log.Warn("failed to persist session record",
			zap.String("session_id", record.ID.String()),
			zap.String("error", resp.Error.Message))
	}
}

func (a *app) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.log.Sync()
}
