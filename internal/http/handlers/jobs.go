package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MJbae/novel-craft/internal/domain"
)

type jobDTO struct {
	JobID       string           `json:"job_id"`
	ProjectID   string           `json:"project_id"`
	EpisodeID   *string          `json:"episode_id"`
	Status      domain.JobStatus `json:"status"`
	JobType     domain.JobType   `json:"job_type"`
	Step        *domain.JobStep  `json:"step"`
	Progress    int              `json:"progress"`
	RetryCount  int              `json:"retry_count"`
	Result      json.RawMessage  `json:"result,omitempty"`
	Error       *string          `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}

// toJobDTO exposes the result only for completed jobs and the error only for
// failed ones. A result that is not JSON is sent as a string.
func toJobDTO(j domain.Job) jobDTO {
	dto := jobDTO{
		JobID:       j.ID,
		ProjectID:   j.ProjectID,
		EpisodeID:   j.EpisodeID,
		Status:      j.Status,
		JobType:     j.Type,
		Step:        j.Step,
		Progress:    j.Progress,
		RetryCount:  j.RetryCount,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	switch j.Status {
	case domain.JobStatusCompleted:
		if j.Output != nil {
			if json.Valid([]byte(*j.Output)) {
				dto.Result = json.RawMessage(*j.Output)
			} else {
				dto.Result, _ = json.Marshal(*j.Output)
			}
		}
	case domain.JobStatusFailed:
		dto.Error = j.Error
	}
	return dto
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toJobDTO(*job))
}

// CancelJob fails a queued or running job. Cancelling a finished job is
// accepted and changes nothing.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := a.Jobs.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"cancelled": true})
}
