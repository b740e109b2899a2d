package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// Create inserts a new queued job record and fills in its creation time.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	input := string(job.Input)
	if input == "" {
		input = "{}"
	}
	err := r.sql.QueryRow(ctx, sqlinline.QJobInsert,
		job.ID,
		job.ProjectID,
		job.EpisodeID,
		string(job.Type),
		input,
		job.MaxRetries,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.Status = domain.JobStatusQueued
	job.Progress = 0
	job.RetryCount = 0
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QJobGetByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// NextQueued returns the oldest queued job, or nil when the queue is empty.
func (r *JobRepositoryPG) NextQueued(ctx context.Context) (*domain.Job, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QJobNextQueued))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// UpdateStatus moves a non-terminal job to status and writes the optional fields.
// It returns domain.ErrJobTerminal when no active row matched.
func (r *JobRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, update domain.StatusUpdate) error {
	var step *string
	if update.Step != nil {
		s := string(*update.Step)
		step = &s
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QJobUpdateStatus,
		id,
		string(status),
		update.ClearStep,
		step,
		update.Progress,
		update.Output,
		update.Error,
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobTerminal
	}
	return nil
}

// IncrementRetry bumps retry_count and returns the new value.
func (r *JobRepositoryPG) IncrementRetry(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.sql.QueryRow(ctx, sqlinline.QJobIncrementRetry, id).Scan(&count); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("increment retry: %w", err)
	}
	return count, nil
}

// Cancel fails a queued or running job. It reports whether a row changed.
func (r *JobRepositoryPG) Cancel(ctx context.Context, id string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QJobCancel, id, domain.CancelledMessage)
	if err != nil {
		return false, fmt.Errorf("cancel job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FailRunning force-fails every running job and returns how many were touched.
func (r *JobRepositoryPG) FailRunning(ctx context.Context, message string) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QJobFailRunning, message)
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *JobRepositoryPG) CountRunning(ctx context.Context) (int, error) {
	var count int
	if err := r.sql.QueryRow(ctx, sqlinline.QJobCountRunning).Scan(&count); err != nil {
		return 0, fmt.Errorf("count running jobs: %w", err)
	}
	return count, nil
}

func (r *JobRepositoryPG) CountActiveForEpisode(ctx context.Context, projectID string, episodeID *string, episodeNumber *int) (int, error) {
	var count int
	if err := r.sql.QueryRow(ctx, sqlinline.QJobCountActiveForEpisode, projectID, episodeID, episodeNumber).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active episode jobs: %w", err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job         domain.Job
		jobType     string
		status      string
		step        *string
		startedAt   *time.Time
		completedAt *time.Time
	)
	if err := row.Scan(
		&job.ID,
		&job.ProjectID,
		&job.EpisodeID,
		&jobType,
		&status,
		&step,
		&job.Progress,
		&job.Input,
		&job.Output,
		&job.Error,
		&job.RetryCount,
		&job.MaxRetries,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	if step != nil {
		s := domain.JobStep(*step)
		job.Step = &s
	}
	job.StartedAt = startedAt
	job.CompletedAt = completedAt
	return &job, nil
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
