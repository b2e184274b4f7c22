package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/solidarityfund/fundraiser-backend/api/responses"
	"github.com/solidarityfund/fundraiser-backend/internal/teams"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
)

type teamLister interface {
	List(ctx context.Context) ([]teams.Team, error)
}

type totalsReader interface {
	Totals(ctx context.Context) (map[string]int64, error)
}

// LeaderboardEntry is one ranked row. Progress is total/goal in [0..n],
// zero when the team has no goal.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	TeamRef    string  `json:"team_ref"`
	Name       string  `json:"name"`
	LogoURL    string  `json:"logo_url,omitempty"`
	TotalCents int64   `json:"total_cents"`
	GoalCents  int64   `json:"goal_cents,omitempty"`
	Progress   float64 `json:"progress"`
}

type leaderboardBody struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func buildLeaderboard(ctx context.Context, directory teamLister, totals totalsReader) (*leaderboardBody, error) {
	list, err := directory.List(ctx)
	if err != nil {
		return nil, err
	}
	sums, err := totals.Totals(ctx)
	if err != nil {
		return nil, err
	}

	// Slug order is the stable tie-break for equal totals.
	sort.Slice(list, func(i, j int) bool { return list[i].Slug < list[j].Slug })

	entries := make([]LeaderboardEntry, 0, len(list))
	for _, team := range list {
		entry := LeaderboardEntry{
			TeamRef:    team.Slug,
			Name:       team.Name,
			LogoURL:    team.LogoURL,
			TotalCents: sums[team.Slug],
			GoalCents:  team.GoalCents,
		}
		if team.GoalCents > 0 {
			entry.Progress = float64(entry.TotalCents) / float64(team.GoalCents)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalCents > entries[j].TotalCents
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &leaderboardBody{Leaderboard: entries, UpdatedAt: time.Now().UTC()}, nil
}

// Leaderboard serves the ranked standings inside the standard envelope.
func Leaderboard(directory teamLister, totals totalsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := buildLeaderboard(ctx, directory, totals)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, body)
	}
}

// PublicLeaderboard serves the embeddable variant: bare body, any origin,
// briefly cacheable at the edge.
func PublicLeaderboard(directory teamLister, totals totalsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := buildLeaderboard(ctx, directory, totals)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "public, s-maxage=30")
		responses.WriteRaw(w, http.StatusOK, body)
	}
}
