// Package queue is the persistent generation job queue.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/domain/jsoncfg"
	"github.com/MJbae/novel-craft/internal/infra"
)

// Options configures a Queue.
type Options struct {
	Logger *infra.Logger
	// NewID overrides job id generation.
	NewID func() string
}

// Queue wraps a domain.JobRepository with input validation, the per-episode
// guard and the status bookkeeping used by the worker.
type Queue struct {
	repo   domain.JobRepository
	logger *infra.Logger
	newID  func() string
}

func New(repo domain.JobRepository, opts Options) *Queue {
	logger := opts.Logger
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Queue{repo: repo, logger: logger, newID: newID}
}

// CreateParams describes a job to enqueue. EpisodeID and EpisodeNumber pin
// the stored episode the input refers to; the busy check matches on either.
type CreateParams struct {
	ProjectID     string
	Type          domain.JobType
	Input         json.RawMessage
	EpisodeID     *string
	EpisodeNumber *int
	// MaxRetries defaults to domain.DefaultMaxRetries when nil.
	MaxRetries *int
}

// Create validates the typed input for p.Type and persists a queued job.
// Episode-scoped jobs are rejected with domain.ErrEpisodeBusy while another
// queued or running job targets the same episode.
func (q *Queue) Create(ctx context.Context, p CreateParams) (*domain.Job, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownJobType, p.Type)
	}
	if _, err := uuid.Parse(p.ProjectID); err != nil {
		return nil, fmt.Errorf("%w: project_id must be a uuid", domain.ErrInvalidInput)
	}
	maxRetries := domain.DefaultMaxRetries
	if p.MaxRetries != nil {
		if *p.MaxRetries < 0 {
			return nil, fmt.Errorf("%w: max_retries must not be negative", domain.ErrInvalidInput)
		}
		maxRetries = *p.MaxRetries
	}
	in, err := jsoncfg.DecodeInput(p.Type, p.Input)
	if err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s input: %w", p.Type, err)
	}

	episodeID := p.EpisodeID
	var episodeNumber *int
	if target, ok := in.(jsoncfg.EpisodeTarget); ok {
		id, num := target.TargetEpisode()
		if episodeID == nil {
			episodeID = id
		}
		episodeNumber = num
		if episodeNumber == nil {
			episodeNumber = p.EpisodeNumber
		}
		active, err := q.repo.CountActiveForEpisode(ctx, p.ProjectID, episodeID, episodeNumber)
		if err != nil {
			return nil, err
		}
		if active > 0 {
			return nil, domain.ErrEpisodeBusy
		}
	}

	job := &domain.Job{
		ID:         q.newID(),
		ProjectID:  p.ProjectID,
		EpisodeID:  episodeID,
		Type:       p.Type,
		Status:     domain.JobStatusQueued,
		Input:      normalized,
		MaxRetries: maxRetries,
	}
	if err := q.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	q.logger.Info().
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Str("project_id", job.ProjectID).
		Msg("queue: job created")
	return job, nil
}

func (q *Queue) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return q.repo.GetByID(ctx, id)
}

// NextQueued returns the oldest queued job or nil.
func (q *Queue) NextQueued(ctx context.Context) (*domain.Job, error) {
	return q.repo.NextQueued(ctx)
}

// UpdateStatus applies a status change. Running stamps started_at, completed
// and failed stamp completed_at. Terminal jobs are left untouched and
// domain.ErrJobTerminal is returned.
func (q *Queue) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, update domain.StatusUpdate) error {
	if update.Progress != nil {
		p := clampProgress(*update.Progress)
		update.Progress = &p
	}
	return q.repo.UpdateStatus(ctx, id, status, update)
}

// Report records step and progress on a running job. It satisfies the
// progress reporter used by generation handlers.
func (q *Queue) Report(ctx context.Context, id string, step *domain.JobStep, progress int) error {
	return q.UpdateStatus(ctx, id, domain.JobStatusRunning, domain.StatusUpdate{Step: step, Progress: &progress})
}

func (q *Queue) IncrementRetry(ctx context.Context, id string) (int, error) {
	return q.repo.IncrementRetry(ctx, id)
}

// Cancel fails a queued or running job with the cancellation message. It is a
// no-op on terminal jobs and returns domain.ErrNotFound for unknown ids.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	changed, err := q.repo.Cancel(ctx, id)
	if err != nil {
		return err
	}
	if changed {
		q.logger.Info().Str("job_id", id).Msg("queue: job cancelled")
		return nil
	}
	if _, err := q.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// CleanupStaleJobs fails every job a previous process left running. Call it
// once at startup before the worker begins polling.
func (q *Queue) CleanupStaleJobs(ctx context.Context) (int64, error) {
	n, err := q.repo.FailRunning(ctx, domain.ServerRestartMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		q.logger.Warn().Int64("count", n).Msg("queue: failed stale running jobs")
	}
	return n, nil
}

func (q *Queue) RunningCount(ctx context.Context) (int, error) {
	return q.repo.CountRunning(ctx)
}

// IsTerminal reports whether err means the job was already finished.
func IsTerminal(err error) bool {
	return errors.Is(err, domain.ErrJobTerminal)
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
