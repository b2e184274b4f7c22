package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solidarityfund/fundraiser-backend/api/responses"
	"github.com/solidarityfund/fundraiser-backend/api/validators"
	"github.com/solidarityfund/fundraiser-backend/internal/teams"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

func TeamRegister(svc *teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input teams.RegisterInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		team, err := svc.Register(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"team":     team.Public(),
			"redirect": "/team/" + team.Slug,
		})
	}
}

func TeamList(svc *teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]teams.PublicView, 0, len(list))
		for _, team := range list {
			out = append(out, team.Public())
		}
		responses.WriteSuccess(w, map[string]any{"teams": out})
	}
}

func TeamGet(svc *teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		team, err := svc.GetBySlug(ctx, chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"team": team.Public()})
	}
}

// TeamsDeleteAll wipes the directory; the router refuses to mount it in
// production.
func TeamsDeleteAll(svc *teams.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		deleted, err := svc.DeleteAll(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"deleted": deleted})
	}
}
