package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	webhookcontrollers "github.com/solidarityfund/fundraiser-backend/api/controllers/webhooks"
	"github.com/solidarityfund/fundraiser-backend/api/routes"
	"github.com/solidarityfund/fundraiser-backend/internal/checkout"
	"github.com/solidarityfund/fundraiser-backend/internal/donations"
	"github.com/solidarityfund/fundraiser-backend/internal/teams"
	"github.com/solidarityfund/fundraiser-backend/internal/totals"
	"github.com/solidarityfund/fundraiser-backend/pkg/blob"
	"github.com/solidarityfund/fundraiser-backend/pkg/config"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
	"github.com/solidarityfund/fundraiser-backend/pkg/metrics"
	"github.com/solidarityfund/fundraiser-backend/pkg/redis"
	"github.com/solidarityfund/fundraiser-backend/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
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

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(registry)

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
	guard, err := donations.NewCountGuard(redisClient, cfg.Webhook.CountedTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create count guard", err)
		os.Exit(1)
	}
	donationService, err := donations.NewService(donations.ServiceParams{
		Store:         recordStore,
		Totals:        aggregator,
		Guard:         guard,
		Metrics:       webhookMetrics,
		Logger:        logg,
		CountApproved: cfg.Webhook.CountApproved,
		KeepRaw:       !cfg.App.IsProd(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create donation service", err)
		os.Exit(1)
	}

	teamStore, err := teams.NewStore(blobClient, cfg.Blob.TeamsPrefix)
	if err != nil {
		logg.Error(context.Background(), "failed to create team store", err)
		os.Exit(1)
	}
	teamService, err := teams.NewService(teamStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create team service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(squareClient, teamService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	verifier := webhookcontrollers.NewSignatureVerifier(cfg.Webhook, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, blobClient, redisClient, registry,
			donationService, recordStore, teamService, checkoutService, aggregator, verifier),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
