package controllers

import (
	"net/http"

	"github.com/solidarityfund/fundraiser-backend/api/responses"
	"github.com/solidarityfund/fundraiser-backend/internal/totals"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

// TotalsRebuild recomputes the totals snapshot from the record store. It is
// an operator endpoint for repairing drift.
func TotalsRebuild(agg *totals.Aggregator, records totals.RecordScanner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := agg.Rebuild(ctx, records)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
