package teams

import (
	"context"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

// RegisterInput is the organizer-supplied registration payload.
type RegisterInput struct {
	Name         string `json:"name" validate:"required,min=2,max=80"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	LogoURL      string `json:"logo_url" validate:"omitempty,url"`
	GoalCents    int64  `json:"goal_cents" validate:"omitempty,min=0"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

type directory interface {
	Create(ctx context.Context, team Team) error
	Get(ctx context.Context, slug string) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Service owns team directory semantics: slug derivation, duplicate
// registration conflicts, and the public/private field split.
type Service struct {
	store  directory
	logger *logger.Logger
}

func NewService(store directory, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "team store required")
	}
	return &Service{store: store, logger: logg}, nil
}

// Register creates a team under the slug derived from its name. A name that
// slugifies to an already-registered slug conflicts.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Team, error) {
	slug := Slugify(input.Name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "team name must contain letters or digits")
	}

	team := Team{
		ID:           uuid.NewString(),
		Slug:         slug,
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		LogoURL:      strings.TrimSpace(input.LogoURL),
		GoalCents:    input.GoalCents,
		ContactEmail: strings.TrimSpace(input.ContactEmail),
	}
	if err := s.store.Create(ctx, team); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithTeamRef(ctx, slug), "team registered")
	}
	return &team, nil
}

// GetBySlug returns one team.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Team, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "team slug is required")
	}
	return s.store.Get(ctx, slug)
}

// Exists reports whether a slug is registered without surfacing not-found
// as an error.
func (s *Service) Exists(ctx context.Context, slug string) (bool, error) {
	_, err := s.store.Get(ctx, slug)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the full directory.
func (s *Service) List(ctx context.Context) ([]Team, error) {
	return s.store.List(ctx)
}

// DeleteAll wipes the directory and reports how many teams were removed.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return deleted, err
	}
	if s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "deleted", deleted), "team directory wiped")
	}
	return deleted, nil
}
