package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solidarityfund/fundraiser-backend/api/controllers"
	webhookcontrollers "github.com/solidarityfund/fundraiser-backend/api/controllers/webhooks"
	"github.com/solidarityfund/fundraiser-backend/api/middleware"
	checkoutsvc "github.com/solidarityfund/fundraiser-backend/internal/checkout"
	"github.com/solidarityfund/fundraiser-backend/internal/donations"
	"github.com/solidarityfund/fundraiser-backend/internal/teams"
	"github.com/solidarityfund/fundraiser-backend/internal/totals"
	"github.com/solidarityfund/fundraiser-backend/pkg/config"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	blobPinger pinger,
	redisPinger pinger,
	gatherer prometheus.Gatherer,
	donationService *donations.Service,
	recordStore *donations.Store,
	teamService *teams.Service,
	checkoutService *checkoutsvc.Service,
	aggregator *totals.Aggregator,
	webhookVerifier *webhookcontrollers.SignatureVerifier,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, blobPinger, redisPinger))
	})

	if gatherer != nil {
		r.Get("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Get("/square", webhookcontrollers.SquareWebhookProbe())
		r.Post("/square", webhookcontrollers.SquareWebhook(donationService, webhookVerifier, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/teams", func(r chi.Router) {
			r.Post("/register", controllers.TeamRegister(teamService, logg))
			r.Get("/", controllers.TeamList(teamService, logg))
			r.Get("/{slug}", controllers.TeamGet(teamService, logg))
		})
		r.Post("/donations/create-link", controllers.DonationCreateLink(checkoutService, logg))
		r.Get("/leaderboard", controllers.Leaderboard(teamService, aggregator, logg))
	})

	// The public leaderboard is embedded on third-party pages.
	r.Route("/api/public", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Get("/leaderboard", controllers.PublicLeaderboard(teamService, aggregator, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/totals/rebuild", controllers.TotalsRebuild(aggregator, recordStore, logg))
		if !cfg.App.IsProd() {
			r.Delete("/teams", controllers.TeamsDeleteAll(teamService, logg))
		}
	})

	return r
}
