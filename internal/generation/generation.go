// Package generation implements the per-type job handlers that turn a queued
// generation job into persisted novel content.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MJbae/novel-craft/internal/contextpack"
	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/domain/jsoncfg"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/prompts"
	"github.com/MJbae/novel-craft/internal/providers/codex"
	"github.com/MJbae/novel-craft/internal/worker"
)

// Per-call generation timeouts.
const (
	TimeoutBootstrap    = 180 * time.Second
	TimeoutOutline      = 180 * time.Second
	TimeoutEpisodePass1 = 600 * time.Second
	TimeoutEpisodePass2 = 300 * time.Second
	TimeoutRevise       = 300 * time.Second
	TimeoutSummary      = 120 * time.Second
	TimeoutEventExtract = 120 * time.Second
)

const (
	summaryWindow = 3
	eventWindow   = 10
)

// Generator runs one prompt through the external generation process.
type Generator interface {
	ExecWithRetry(ctx context.Context, prompt string, opts codex.ExecOptions, maxRetries int) (codex.Result, error)
}

// Reporter records a running job's step and progress.
type Reporter interface {
	Report(ctx context.Context, id string, step *domain.JobStep, progress int) error
}

// DraftStore archives intermediate drafts.
type DraftStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// Repositories groups the storage collaborators the handlers read and write.
type Repositories struct {
	Projects   domain.ProjectRepository
	Characters domain.CharacterRepository
	Episodes   domain.EpisodeRepository
	Events     domain.EventRepository
}

type Options struct {
	Logger *infra.Logger
	// Drafts is optional; drafts are not archived without it.
	Drafts        DraftStore
	ContextBudget int
	// MaxRetries is passed to every generation call.
	MaxRetries int
	NewID      func() string
}

// Service holds the collaborators shared by every handler.
type Service struct {
	gen      Generator
	reporter Reporter
	prompts  *prompts.Catalogue
	repos    Repositories
	drafts   DraftStore
	logger   *infra.Logger

	contextBudget int
	maxRetries    int
	newID         func() string
}

func NewService(gen Generator, reporter Reporter, catalogue *prompts.Catalogue, repos Repositories, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	budget := opts.ContextBudget
	if budget <= 0 {
		budget = contextpack.DefaultBudget
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = codex.DefaultMaxRetries
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Service{
		gen:           gen,
		reporter:      reporter,
		prompts:       catalogue,
		repos:         repos,
		drafts:        opts.Drafts,
		logger:        logger,
		contextBudget: budget,
		maxRetries:    maxRetries,
		newID:         newID,
	}
}

// Registry returns the handler for every job type.
func (s *Service) Registry() worker.Registry {
	return worker.Registry{
		domain.JobTypeBootstrap:    typed(s.bootstrap),
		domain.JobTypeOutline:      typed(s.outline),
		domain.JobTypeEpisodePass1: typed(s.episode),
		domain.JobTypeRevise:       typed(s.revise),
		domain.JobTypeSummary:      typed(s.summary),
		domain.JobTypeEventExtract: typed(s.eventExtract),
	}
}

// typed decodes the job input into I before calling fn and encodes its result.
func typed[I jsoncfg.JobInput, O any](fn func(ctx context.Context, job *domain.Job, in I) (O, error)) worker.Handler {
	return worker.HandlerFunc(func(ctx context.Context, job *domain.Job) (string, error) {
		raw, err := jsoncfg.DecodeInput(job.Type, job.Input)
		if err != nil {
			return "", err
		}
		in, ok := raw.(I)
		if !ok {
			return "", fmt.Errorf("%w: %s input has type %T", domain.ErrInvalidInput, job.Type, raw)
		}
		out, err := fn(ctx, job, in)
		if err != nil {
			return "", err
		}
		return string(jsoncfg.MustMarshal(out)), nil
	})
}

// report records progress. A terminal job aborts the handler; other
// failures only lose a progress tick.
func (s *Service) report(ctx context.Context, job *domain.Job, step domain.JobStep, progress int) error {
	var stepPtr *domain.JobStep
	if step != "" {
		stepPtr = &step
	}
	err := s.reporter.Report(ctx, job.ID, stepPtr, progress)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrJobTerminal) {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}
	s.logger.Warn().Err(err).Str("job_id", job.ID).Int("progress", progress).Msg("generation: progress update failed")
	return nil
}

func (s *Service) generate(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	res, err := s.gen.ExecWithRetry(ctx, prompt, codex.ExecOptions{Timeout: timeout}, s.maxRetries)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (s *Service) loadProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.repos.Projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	return p, nil
}

func (s *Service) loadEpisode(ctx context.Context, id string) (*domain.Episode, error) {
	ep, err := s.repos.Episodes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("episode %s: %w", id, err)
	}
	return ep, nil
}

// loadJobEpisode loads the episode named by a job's input and rejects one
// that belongs to another project.
func (s *Service) loadJobEpisode(ctx context.Context, job *domain.Job, id string) (*domain.Episode, error) {
	ep, err := s.loadEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if ep.ProjectID != job.ProjectID {
		return nil, fmt.Errorf("%w: episode %s belongs to project %s, not %s", domain.ErrInvalidInput, ep.ID, ep.ProjectID, job.ProjectID)
	}
	return ep, nil
}

func (s *Service) archiveDraft(ctx context.Context, jobID, name, content string) {
	if s.drafts == nil {
		return
	}
	key := "drafts/" + jobID + "/" + name + ".txt"
	if _, err := s.drafts.Write(ctx, key, []byte(content)); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Str("key", key).Msg("generation: archive draft failed")
	}
}
