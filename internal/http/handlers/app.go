// Package handlers implements the JSON HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/middleware"
	"github.com/MJbae/novel-craft/internal/queue"
)

const maxBodyBytes = 1 << 20

// JobQueue is the part of the queue the API drives.
type JobQueue interface {
	Create(ctx context.Context, p queue.CreateParams) (*domain.Job, error)
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	Cancel(ctx context.Context, id string) error
}

type Options struct {
	Logger *infra.Logger
	// Ping checks the database for the health endpoint.
	Ping  func(ctx context.Context) error
	NewID func() string
	Now   func() time.Time
}

type App struct {
	Projects   domain.ProjectRepository
	Characters domain.CharacterRepository
	Episodes   domain.EpisodeRepository
	Jobs       JobQueue

	logger *infra.Logger
	ping   func(ctx context.Context) error
	newID  func() string
	now    func() time.Time
}

func NewApp(projects domain.ProjectRepository, characters domain.CharacterRepository, episodes domain.EpisodeRepository, jobs JobQueue, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		Projects:   projects,
		Characters: characters,
		Episodes:   episodes,
		Jobs:       jobs,
		logger:     logger,
		ping:       opts.Ping,
		newID:      newID,
		now:        now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// error writes {"error": {...}} with the message for code in the request locale.
func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	a.json(w, status, map[string]errorBody{"error": {
		Code:    code,
		Message: message(middleware.LocaleFromContext(r.Context()), code),
		Detail:  detail,
	}})
}

// fail maps err onto a status code. Unexpected errors are logged and their
// text is not sent to the client.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, codeNotFound, "")
	case errors.Is(err, domain.ErrUnknownJobType):
		a.error(w, r, http.StatusBadRequest, codeUnknownJobType, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, r, http.StatusBadRequest, codeInvalidInput, detailOf(err))
	case errors.Is(err, domain.ErrEpisodeBusy):
		a.error(w, r, http.StatusConflict, codeEpisodeBusy, "")
	default:
		a.logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("http: request failed")
		a.error(w, r, http.StatusInternalServerError, codeInternal, "")
	}
}

// detailOf drops the sentinel prefix from a wrapped invalid-input error.
func detailOf(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidInput.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathID returns the named URL parameter when it is a uuid. Anything else
// cannot exist and is answered with 404.
func (a *App) pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if _, err := uuid.Parse(id); err != nil {
		a.error(w, r, http.StatusNotFound, codeNotFound, "")
		return "", false
	}
	return id, true
}
