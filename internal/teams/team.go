package teams

import (
	"regexp"
	"strings"
)

// Team is one fundraising team in the directory. ContactEmail is private to
// organizers and never serialized into public responses.
type Team struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	GoalCents    int64  `json:"goal_cents,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// PublicView strips organizer-only fields for API responses.
type PublicView struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	GoalCents   int64  `json:"goal_cents,omitempty"`
}

func (t Team) Public() PublicView {
	return PublicView{
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		LogoURL:     t.LogoURL,
		GoalCents:   t.GoalCents,
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a team name into its directory key: lowercase, runs of
// non-alphanumerics collapsed to single dashes, no leading or trailing dash.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
