package controllers

import (
	"net/http"

	"github.com/solidarityfund/fundraiser-backend/api/responses"
	"github.com/solidarityfund/fundraiser-backend/api/validators"
	"github.com/solidarityfund/fundraiser-backend/internal/checkout"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

// DonationCreateLink returns a hosted checkout URL for one donation.
func DonationCreateLink(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input checkout.LinkInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		url, err := svc.CreateLink(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}
