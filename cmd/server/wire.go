package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/atlas/internal"
	"github.com/DukeRupert/atlas/internal/ai"
	"github.com/DukeRupert/atlas/internal/ai/anthropic"
	"github.com/DukeRupert/atlas/internal/ai/gemini"
	"github.com/DukeRupert/atlas/internal/ai/mock"
	"github.com/DukeRupert/atlas/internal/hazardlog"
	"github.com/DukeRupert/atlas/internal/prompt"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
)

func loadPrompt(cfg *internal.Config) (*prompt.Template, error) {
	if cfg.PromptFile != "" {
		return prompt.Load(cfg.PromptFile)
	}
	return prompt.Default()
}

func newTextGenerator(cfg *internal.Config, clock clockwork.Clock, logger *slog.Logger) (ai.TextGenerator, error) {
	providerConfig := ai.ProviderConfig{
		MaxRetries:     cfg.AIMaxRetries,
		RetryBaseDelay: cfg.AIRetryBaseDelay,
		RequestTimeout: cfg.AIRequestTimeout,
		Clock:          clock,
	}

	switch cfg.AIProvider {
	case internal.AIProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			ProviderConfig: providerConfig,
		}, logger)
	case internal.AIProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.AnthropicModel,
			ProviderConfig: providerConfig,
		}, logger)
	case internal.AIProviderMock:
		logger.Warn("Using mock AI provider, hazard reports are canned")
		return mock.New(logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

// newStore opens the configured sink. The returned func releases its resources.
func newStore(ctx context.Context, cfg *internal.Config, clock clockwork.Clock, logger *slog.Logger) (hazardlog.Store, func(), error) {
	noop := func() {}

	switch cfg.LogSink {
	case internal.LogSinkSheets:
		store, err := hazardlog.NewSheetsStore(ctx, hazardlog.SheetsConfig{
			SpreadsheetID:   cfg.SheetsSpreadsheetID,
			CredentialsFile: cfg.SheetsCredentialsFile,
			Range:           cfg.SheetsRange,
		}, logger)
		return store, noop, err

	case internal.LogSinkPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return nil, noop, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(ctx, db, logger); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database ready")
		return hazardlog.NewPostgresStore(db, logger), func() { db.Close() }, nil

	case internal.LogSinkR2:
		store, err := hazardlog.NewR2Store(hazardlog.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			Prefix:          cfg.R2Prefix,
			Endpoint:        cfg.R2Endpoint,
		}, clock, logger)
		return store, noop, err

	case internal.LogSinkCSV:
		store, err := hazardlog.NewCSVStore(cfg.CSVLogPath, logger)
		return store, noop, err

	case internal.LogSinkMemory:
		logger.Warn("Using in-memory hazard log, rows are lost on restart")
		return hazardlog.NewMemoryStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown log sink %q", cfg.LogSink)
	}
}
