package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/solidarityfund/fundraiser-backend/internal/donations"
	"github.com/solidarityfund/fundraiser-backend/internal/totals"
	"github.com/solidarityfund/fundraiser-backend/pkg/blob"
	"github.com/solidarityfund/fundraiser-backend/pkg/config"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
	"github.com/solidarityfund/fundraiser-backend/pkg/redis"
)

// Recomputes the totals snapshot from the stored donation records. Run it
// when the snapshot has drifted or after restoring records from a backup.
func main() {
	logg := logger.New(logger.Options{ServiceName: "rebuild-totals"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "rebuild-totals",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	blobClient, err := blob.NewClient(context.Background(), cfg.Blob, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap blob storage", err)
		os.Exit(1)
	}

	recordStore, err := donations.NewStore(blobClient, cfg.Blob.PaymentsPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to create record store", err)
		os.Exit(1)
	}
	aggregator, err := totals.NewAggregator(blobClient, redisClient, cfg.Blob.TotalsPath)
	if err != nil {
		logg.Error(context.Background(), "failed to create totals aggregator", err)
		os.Exit(1)
	}

	ctx := context.Background()
	stats, err := aggregator.Rebuild(ctx, recordStore)
	if err != nil {
		logg.Error(ctx, "totals rebuild failed", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"scanned": stats.Scanned,
		"counted": stats.Counted,
		"skipped": stats.Skipped,
		"teams":   stats.Teams,
	})
	if stats.ScanWarning != "" {
		ctx = logg.WithField(ctx, "scan_warning", stats.ScanWarning)
	}
	logg.Info(ctx, "totals rebuilt")
}
