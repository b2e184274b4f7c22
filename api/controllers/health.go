package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/solidarityfund/fundraiser-backend/api/responses"
	"github.com/solidarityfund/fundraiser-backend/pkg/config"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

const readyCheckTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fundraiser-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the blob store and Redis are reachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, blobStore, redisStore pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		w.Header().Set("X-Fundraiser-Env", cfg.App.Env)

		checks := map[string]pinger{
			"blob":  blobStore,
			"redis": redisStore,
		}
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
