package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/config"
	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/llm"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/source"
	"github.com/Veraticus/inbox-triage/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the components one command invocation works with.
type app struct {
	cfg     *config.Config
	store   storage.Store
	engine  *engine.TriageEngine
	logger  *slog.Logger
	session string
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	session := storage.NewSessionID()

	store, err := storage.Open(ctx, cfg.StorageOptions(session))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var classifier engine.Classifier
	if cfg.FallbackEnabled() {
		fc, err := llm.NewClassifier(cfg.LLMClientConfig(), logger.With("component", "fallback"))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		classifier = fc
	} else {
		logger.Info("no fallback classifier configured; records no rule matches will be marked failed")
	}

	eng := engine.NewWithConfig(store, cfg.RuleTable(), classifier, logger.With("component", "engine"), cfg.EngineConfig())

	logger.Debug("triage session started",
		"session", session,
		"store", cfg.Store.Driver,
		"fallback", cfg.LLM.Provider)

	return &app{
		cfg:     cfg,
		store:   store,
		engine:  eng,
		logger:  logger,
		session: session,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// addSourceFlags registers the flags selecting where records come from.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "record source: demo, file or gmail (default from config)")
	cmd.Flags().String("input", "", "JSON or CSV file to read when --source=file")
	cmd.Flags().Int("max-results", 0, "number of Gmail messages to fetch")
}

// recordSource builds the source selected by flags, falling back to config.
func (a *app) recordSource(ctx context.Context, cmd *cobra.Command) (engine.Source, error) {
	kind, _ := cmd.Flags().GetString("source")
	input, _ := cmd.Flags().GetString("input")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	if kind == "" {
		kind = a.cfg.Source.Kind
		if input != "" {
			kind = config.SourceFile
		}
	}
	if input == "" {
		input = a.cfg.Source.Path
	}

	switch strings.ToLower(kind) {
	case "", config.SourceDemo:
		return source.NewFixtureSource(), nil
	case config.SourceFile:
		return source.NewFileSource(config.ExpandPath(input), a.cfg.Source.Format)
	case config.SourceGmail:
		gcfg := a.cfg.GmailSourceConfig()
		if maxResults > 0 {
			gcfg.MaxResults = maxResults
		}
		return source.NewGmailSource(ctx, gcfg, a.logger)
	default:
		return nil, fmt.Errorf("unknown source %q: use demo, file or gmail", kind)
	}
}

// fetch reads every record from the selected source.
func (a *app) fetch(ctx context.Context, cmd *cobra.Command) ([]model.Record, error) {
	src, err := a.recordSource(ctx, cmd)
	if err != nil {
		return nil, err
	}

	records, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	return records, nil
}
