package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/ingest"
	"github.com/jonathan/job-tracker/internal/logging"
	"github.com/jonathan/job-tracker/internal/mail"
	"github.com/jonathan/job-tracker/internal/sources"
)

// app holds the process-wide dependencies shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *db.DB
}

// bootstrap loads configuration, builds the logger and opens the database,
// applying the schema.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func (a *app) Close() {
	a.db.Close()
	_ = a.logger.Sync()
}

func (a *app) ingester() *ingest.Ingester {
	registry := sources.NewRegistry(sources.Options{
		Timeout: a.cfg.FetchTimeout,
		Logger:  a.logger.Named("sources"),
	})
	return ingest.New(a.db, registry, ingest.Options{
		BatchSize:  a.cfg.BatchSize,
		BatchDelay: a.cfg.BatchDelay,
		Logger:     a.logger.Named("ingest"),
	})
}

func (a *app) syncer() *mail.Syncer {
	classifier := mail.NewClassifier(a.cfg.Mail, a.logger.Named("mail"))
	return mail.NewSyncer(a.db, classifier, a.logger.Named("email_sync"))
}
