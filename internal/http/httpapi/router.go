// Package httpapi assembles the HTTP routes and middleware.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MJbae/novel-craft/internal/http/handlers"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/middleware"
)

type RouterOptions struct {
	Logger         infra.Logger
	CORSOrigins    []string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	GenerateLimit  int
	GenerateWindow time.Duration
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", handlers.Metrics())

	r.Route("/v1/projects", func(r chi.Router) {
		r.Get("/", app.ListProjects)
		r.Post("/", app.CreateProject)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetProject)
			r.Get("/export", app.ExportProject)
			r.Get("/characters", app.ListCharacters)
			r.Post("/characters", app.CreateCharacter)
			r.Get("/episodes", app.ListEpisodes)
		})
	})
	r.Get("/v1/episodes/{id}", app.GetEpisode)

	r.Route("/v1/generate", func(r chi.Router) {
		if opts.GenerateLimit > 0 {
			window := opts.GenerateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(middleware.RateLimit(opts.GenerateLimit, window))
		}
		r.Post("/{kind}", app.Generate)
	})

	r.Route("/v1/jobs/{id}", func(r chi.Router) {
		r.Get("/", app.GetJob)
		r.Delete("/", app.CancelJob)
	})

	return r
}
