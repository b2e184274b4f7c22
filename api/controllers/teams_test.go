package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/solidarityfund/fundraiser-backend/internal/teams"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
	"github.com/solidarityfund/fundraiser-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// fakeDirectory is an in-memory team directory keyed by slug.
type fakeDirectory struct {
	teams map[string]teams.Team
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{teams: map[string]teams.Team{}}
}

func (f *fakeDirectory) Create(_ context.Context, team teams.Team) error {
	if _, ok := f.teams[team.Slug]; ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "team already exists")
	}
	f.teams[team.Slug] = team
	return nil
}

func (f *fakeDirectory) Get(_ context.Context, slug string) (*teams.Team, error) {
	team, ok := f.teams[slug]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
	}
	return &team, nil
}

func (f *fakeDirectory) List(_ context.Context) ([]teams.Team, error) {
	out := make([]teams.Team, 0, len(f.teams))
	for _, team := range f.teams {
		out = append(out, team)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (f *fakeDirectory) DeleteAll(_ context.Context) (int, error) {
	n := len(f.teams)
	f.teams = map[string]teams.Team{}
	return n, nil
}

func newTeamService(t *testing.T, dir *fakeDirectory) *teams.Service {
	t.Helper()
	svc, err := teams.NewService(dir, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v (body %q)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error envelope: %v (body %q)", err, rec.Body.String())
	}
	return envelope.Error
}

func TestTeamRegisterCreatesTeam(t *testing.T) {
	svc := newTeamService(t, newFakeDirectory())
	handler := TeamRegister(svc, testLogger())

	body := `{"name":"Team Falcon!","description":"school club","goal_cents":50000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %q)", rec.Code, rec.Body.String())
	}
	var got struct {
		Team     teams.PublicView `json:"team"`
		Redirect string           `json:"redirect"`
	}
	decodeData(t, rec, &got)
	if got.Team.Slug != "team-falcon" {
		t.Fatalf("slug = %q, want team-falcon", got.Team.Slug)
	}
	if got.Redirect != "/team/team-falcon" {
		t.Fatalf("redirect = %q", got.Redirect)
	}
}

func TestTeamRegisterDuplicateConflicts(t *testing.T) {
	dir := newFakeDirectory()
	svc := newTeamService(t, dir)
	handler := TeamRegister(svc, testLogger())

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/register",
			strings.NewReader(`{"name":"Team Falcon"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != want {
			t.Fatalf("attempt %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}
}

func TestTeamRegisterRejectsBadInput(t *testing.T) {
	svc := newTeamService(t, newFakeDirectory())
	handler := TeamRegister(svc, testLogger())

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"description":"no name"}`},
		{"unknown field", `{"name":"Team X","nope":true}`},
		{"bad logo url", `{"name":"Team X","logo_url":"not a url"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/teams/register", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %q)", rec.Code, rec.Body.String())
			}
			if apiErr := decodeError(t, rec); apiErr.Code != string(pkgerrors.CodeValidation) {
				t.Fatalf("error code = %q", apiErr.Code)
			}
		})
	}
}

func TestTeamGetOmitsPrivateFields(t *testing.T) {
	dir := newFakeDirectory()
	dir.teams["team-falcon"] = teams.Team{
		ID:           "internal-id",
		Slug:         "team-falcon",
		Name:         "Team Falcon",
		ContactEmail: "organizer@example.com",
	}
	svc := newTeamService(t, dir)

	router := chi.NewRouter()
	router.Get("/api/v1/teams/{slug}", TeamGet(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams/team-falcon", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Contains(body, "organizer@example.com") || strings.Contains(body, "internal-id") {
		t.Fatalf("private fields leaked: %q", body)
	}
}

func TestTeamGetMissing(t *testing.T) {
	svc := newTeamService(t, newFakeDirectory())
	router := chi.NewRouter()
	router.Get("/api/v1/teams/{slug}", TeamGet(svc, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams/nobody", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTeamListReturnsAll(t *testing.T) {
	dir := newFakeDirectory()
	dir.teams["alpha"] = teams.Team{Slug: "alpha", Name: "Alpha"}
	dir.teams["bravo"] = teams.Team{Slug: "bravo", Name: "Bravo"}
	svc := newTeamService(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	rec := httptest.NewRecorder()
	TeamList(svc, testLogger())(rec, req)

	var got struct {
		Teams []teams.PublicView `json:"teams"`
	}
	decodeData(t, rec, &got)
	if len(got.Teams) != 2 {
		t.Fatalf("len(teams) = %d, want 2", len(got.Teams))
	}
}

func TestTeamsDeleteAllReportsCount(t *testing.T) {
	dir := newFakeDirectory()
	dir.teams["alpha"] = teams.Team{Slug: "alpha"}
	dir.teams["bravo"] = teams.Team{Slug: "bravo"}
	svc := newTeamService(t, dir)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/v1/teams", nil)
	rec := httptest.NewRecorder()
	TeamsDeleteAll(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rec.Code, rec.Body.String())
	}
	var got struct {
		Deleted int `json:"deleted"`
	}
	decodeData(t, rec, &got)
	if got.Deleted != 2 {
		t.Fatalf("deleted = %d, want 2", got.Deleted)
	}
	if len(dir.teams) != 0 {
		t.Fatalf("directory not emptied: %d left", len(dir.teams))
	}
}
