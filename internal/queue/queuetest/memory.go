// Package queuetest provides an in-memory domain.JobRepository for tests.
package queuetest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/MJbae/novel-craft/internal/domain"
)

// Repository keeps jobs in a map and mirrors the SQL status guards.
type Repository struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	seq  int
	now  func() time.Time
}

func NewRepository() *Repository {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &Repository{jobs: map[string]*domain.Job{}}
	r.now = func() time.Time {
		r.seq++
		return base.Add(time.Duration(r.seq) * time.Millisecond)
	}
	return r
}

// Put stores a copy of job as is, for seeding test state.
func (r *Repository) Put(job domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.now()
	}
	r.jobs[job.ID] = &job
}

// Get returns a copy of the stored job, or nil.
func (r *Repository) Get(id string) *domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

func (r *Repository) Create(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.Status = domain.JobStatusQueued
	job.CreatedAt = r.now()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *Repository) NextQueued(_ context.Context) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var queued []*domain.Job
	for _, j := range r.jobs {
		if j.Status == domain.JobStatusQueued {
			queued = append(queued, j)
		}
	}
	if len(queued) == 0 {
		return nil, nil
	}
	sort.Slice(queued, func(a, b int) bool { return queued[a].CreatedAt.Before(queued[b].CreatedAt) })
	cp := *queued[0]
	return &cp, nil
}

func (r *Repository) UpdateStatus(_ context.Context, id string, status domain.JobStatus, u domain.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	now := r.now()
	if status == domain.JobStatusRunning && j.Status != domain.JobStatusRunning {
		j.StartedAt = &now
	}
	if status.Terminal() {
		j.CompletedAt = &now
	}
	j.Status = status
	switch {
	case u.ClearStep:
		j.Step = nil
	case u.Step != nil:
		s := *u.Step
		j.Step = &s
	}
	if u.Progress != nil {
		j.Progress = *u.Progress
	}
	if u.Output != nil {
		s := *u.Output
		j.Output = &s
	}
	if u.Error != nil {
		s := *u.Error
		j.Error = &s
	}
	return nil
}

func (r *Repository) IncrementRetry(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	j.RetryCount++
	return j.RetryCount, nil
}

func (r *Repository) Cancel(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return false, nil
	}
	now := r.now()
	msg := domain.CancelledMessage
	j.Status = domain.JobStatusFailed
	j.Error = &msg
	j.CompletedAt = &now
	return true, nil
}

func (r *Repository) FailRunning(_ context.Context, message string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, j := range r.jobs {
		if j.Status != domain.JobStatusRunning {
			continue
		}
		now := r.now()
		msg := message
		j.Status = domain.JobStatusFailed
		j.Error = &msg
		j.CompletedAt = &now
		n++
	}
	return n, nil
}

func (r *Repository) CountRunning(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.jobs {
		if j.Status == domain.JobStatusRunning {
			n++
		}
	}
	return n, nil
}

func (r *Repository) CountActiveForEpisode(_ context.Context, projectID string, episodeID *string, episodeNumber *int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.jobs {
		if j.ProjectID != projectID || j.Status.Terminal() || j.Type == domain.JobTypeBootstrap {
			continue
		}
		if episodeID != nil && j.EpisodeID != nil && *j.EpisodeID == *episodeID {
			n++
			continue
		}
		if episodeNumber != nil {
			var in struct {
				EpisodeNumber *int `json:"episode_number"`
			}
			if json.Unmarshal(j.Input, &in) == nil && in.EpisodeNumber != nil && *in.EpisodeNumber == *episodeNumber {
				n++
			}
		}
	}
	return n, nil
}

var _ domain.JobRepository = (*Repository)(nil)
