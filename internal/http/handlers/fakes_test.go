package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/middleware"
	"github.com/MJbae/novel-craft/internal/queue"
	"github.com/MJbae/novel-craft/internal/queue/queuetest"
)

const (
	testProjectID = "0b7c6a1e-5f3d-4c2b-9a8e-7d6c5b4a3f21"
	testEpisodeID = "6f1c2b8e-3d4a-4b7e-9a1f-2c3d4e5f6a7b"
	missingID     = "11111111-2222-4333-8444-555555555555"
)

var fixedNow = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

type fakeProjects struct {
	items map[string]domain.Project
	err   error
}

func (f *fakeProjects) Create(_ context.Context, p *domain.Project) error {
	if f.err != nil {
		return f.err
	}
	p.CreatedAt, p.UpdatedAt = fixedNow, fixedNow
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProjects) List(_ context.Context) ([]domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Project, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeProjects) UpdateBootstrap(context.Context, string, string, string, string) error {
	return nil
}

type fakeCharacters struct {
	items []domain.Character
}

func (f *fakeCharacters) Create(_ context.Context, c *domain.Character) error {
	c.CreatedAt, c.UpdatedAt = fixedNow, fixedNow
	f.items = append(f.items, *c)
	return nil
}

func (f *fakeCharacters) ListByProject(_ context.Context, projectID string) ([]domain.Character, error) {
	var out []domain.Character
	for _, c := range f.items {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeEpisodes struct {
	items []domain.Episode
}

func (f *fakeEpisodes) GetByID(_ context.Context, id string) (*domain.Episode, error) {
	for _, ep := range f.items {
		if ep.ID == id {
			return &ep, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEpisodes) GetByNumber(_ context.Context, projectID string, number int) (*domain.Episode, error) {
	for _, ep := range f.items {
		if ep.ProjectID == projectID && ep.EpisodeNumber == number {
			return &ep, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEpisodes) ListByProject(_ context.Context, projectID string) ([]domain.Episode, error) {
	var out []domain.Episode
	for _, ep := range f.items {
		if ep.ProjectID == projectID {
			out = append(out, ep)
		}
	}
	return out, nil
}

func (f *fakeEpisodes) RecentSummaries(context.Context, string, int, int) ([]domain.Episode, error) {
	return nil, nil
}

func (f *fakeEpisodes) Insert(_ context.Context, ep *domain.Episode) error {
	f.items = append(f.items, *ep)
	return nil
}

func (f *fakeEpisodes) UpdateGenerated(context.Context, *domain.Episode) error { return nil }

func (f *fakeEpisodes) UpdateOutline(context.Context, string, []byte, string) error { return nil }

func (f *fakeEpisodes) UpdateRevision(context.Context, string, string, int) error { return nil }

func (f *fakeEpisodes) UpdateSummary(context.Context, string, string) error { return nil }

type fixture struct {
	app        *App
	projects   *fakeProjects
	characters *fakeCharacters
	episodes   *fakeEpisodes
	jobs       *queuetest.Repository
	router     http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		projects: &fakeProjects{items: map[string]domain.Project{
			testProjectID: {ID: testProjectID, Name: "검은 탑", Genre: "판타지", Tone: "어두운", CreatedAt: fixedNow, UpdatedAt: fixedNow},
		}},
		characters: &fakeCharacters{},
		episodes: &fakeEpisodes{items: []domain.Episode{{
			ID:            testEpisodeID,
			ProjectID:     testProjectID,
			EpisodeNumber: 1,
			Title:         "시작",
			Status:        domain.EpisodeGenerated,
			Content:       "<p>문이 열렸다.</p>",
			WordCount:     6,
		}}},
		jobs: queuetest.NewRepository(),
	}
	n := 0
	newID := func() string {
		n++
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
	}
	q := queue.New(f.jobs, queue.Options{NewID: newID})
	f.app = NewApp(f.projects, f.characters, f.episodes, q, Options{NewID: newID, Now: func() time.Time { return fixedNow }})
	f.router = testRouter(f.app)
	return f
}

// testRouter mounts the handlers the way the API router does.
func testRouter(a *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.I18N(middleware.LocaleKorean, nil))
	r.Get("/v1/healthz", a.Health)
	r.Get("/v1/projects", a.ListProjects)
	r.Post("/v1/projects", a.CreateProject)
	r.Get("/v1/projects/{id}", a.GetProject)
	r.Get("/v1/projects/{id}/export", a.ExportProject)
	r.Get("/v1/projects/{id}/characters", a.ListCharacters)
	r.Post("/v1/projects/{id}/characters", a.CreateCharacter)
	r.Get("/v1/projects/{id}/episodes", a.ListEpisodes)
	r.Get("/v1/episodes/{id}", a.GetEpisode)
	r.Post("/v1/generate/{kind}", a.Generate)
	r.Get("/v1/jobs/{id}", a.GetJob)
	r.Delete("/v1/jobs/{id}", a.CancelJob)
	return r
}
