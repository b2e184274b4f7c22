package checkout

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
	"github.com/solidarityfund/fundraiser-backend/pkg/square"
)

// Donor-facing messages. Raw provider diagnostics never leave the service.
const (
	msgProviderMisconfigured = "Payment provider is not configured correctly."
	msgLinkFailed            = "Unable to create payment link. Please try again."
)

// LinkInput is the donor's checkout request. TeamSlug is optional: donations
// without one go to the general fund and stay unattributed.
type LinkInput struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
	TeamSlug    string `json:"team_slug" validate:"omitempty,max=120"`
}

type paymentLinker interface {
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkCreateParams) (*sq.PaymentLink, error)
}

type teamGetter interface {
	Exists(ctx context.Context, slug string) (bool, error)
}

// Service creates hosted checkout links whose payment note carries the team
// attribution the webhook parses back out.
type Service struct {
	square paymentLinker
	teams  teamGetter
	logger *logger.Logger
}

func NewService(sqc paymentLinker, teams teamGetter, logg *logger.Logger) (*Service, error) {
	if sqc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "square client required")
	}
	return &Service{square: sqc, teams: teams, logger: logg}, nil
}

// CreateLink returns the checkout URL for one donation.
func (s *Service) CreateLink(ctx context.Context, input LinkInput) (string, error) {
	if input.AmountCents <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	slug := strings.TrimSpace(input.TeamSlug)
	if slug != "" && s.teams != nil {
		exists, err := s.teams.Exists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown team").
				WithDetails(map[string]string{"team_slug": slug})
		}
	}

	params := square.PaymentLinkCreateParams{
		Name:        linkName(slug),
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
	}
	if slug != "" {
		params.PaymentNote = "teamSlug=" + slug
	}

	link, err := s.square.CreatePaymentLink(ctx, params)
	if err != nil {
		return "", donorFacing(err)
	}

	url := strings.TrimSpace(stringValue(link.GetURL()))
	if url == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, msgLinkFailed)
	}
	if s.logger != nil {
		fields := map[string]any{"amount_cents": input.AmountCents}
		if slug != "" {
			fields["team_ref"] = slug
		}
		s.logger.Info(s.logger.WithFields(ctx, fields), "payment link created")
	}
	return url, nil
}

func linkName(slug string) string {
	if slug == "" {
		return "Donation"
	}
	return fmt.Sprintf("Donation for %s", slug)
}

// donorFacing collapses provider errors into the two messages donors may
// see: a configuration hint for auth failures, a retry prompt otherwise.
func donorFacing(err error) error {
	typed := pkgerrors.As(err)
	if typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeUnauthorized, pkgerrors.CodeForbidden:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgProviderMisconfigured)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgLinkFailed)
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
