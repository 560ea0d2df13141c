package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/ingest"
	"github.com/jonathan/job-tracker/internal/server"
	"github.com/jonathan/job-tracker/internal/server/ratelimit"
)

// syncResponseMargin is the time left to write the email sync result after
// the scan deadline.
const syncResponseMargin = 30 * time.Second

var (
	servePort            int
	serveRefreshInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for jobs, companies, applications, profile and email sync.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: PORT or 8080)")
	serveCmd.Flags().DurationVar(&serveRefreshInterval, "refresh-interval", 0, "Refresh all companies on this interval; 0 disables")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort > 0 {
		port = servePort
	}

	rl := ratelimit.DefaultConfig()
	rl.Enabled = a.cfg.RateLimit

	ingester := a.ingester()
	srv := server.New(server.Config{
		Port:         port,
		Logger:       a.logger.Named("http"),
		RateLimit:    rl,
		WriteTimeout: writeTimeout(a.cfg.Mail),
	}, a.db, ingester, a.syncer())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gCtx)
	})
	if serveRefreshInterval > 0 {
		g.Go(func() error {
			refreshPeriodically(gCtx, ingester, serveRefreshInterval, a.logger.Named("scheduler"))
			return nil
		})
	}
	return g.Wait()
}

// writeTimeout keeps the HTTP write deadline past the email sync deadline so
// a scan that runs to its limit can still report its result.
func writeTimeout(mailCfg config.MailConfig) time.Duration {
	return max(server.DefaultWriteTimeout, mailCfg.SyncTimeout+syncResponseMargin)
}

// refresher runs one ingestion. *ingest.Ingester implements it.
type refresher interface {
	Run(ctx context.Context, companyID *uuid.UUID) (ingest.Result, error)
}

// refreshPeriodically runs ingestion every interval until ctx is done.
// Failures are logged and retried on the next tick.
func refreshPeriodically(ctx context.Context, ingester refresher, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("scheduled refresh enabled", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := ingester.Run(ctx, nil); err != nil && ctx.Err() == nil {
				logger.Warn("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}
