package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/queue"
)

type generateRoute struct {
	jobType           domain.JobType
	estimatedDuration string
}

// generateRoutes maps the {kind} path segment to a job type.
var generateRoutes = map[string]generateRoute{
	"bootstrap": {domain.JobTypeBootstrap, "60~120초"},
	"outline":   {domain.JobTypeOutline, "30~60초"},
	"episode":   {domain.JobTypeEpisodePass1, "120~240초"},
	"revise":    {domain.JobTypeRevise, "60~180초"},
	"summary":   {domain.JobTypeSummary, "30~60초"},
	"events":    {domain.JobTypeEventExtract, "30~60초"},
}

type enqueueResp struct {
	JobID             string           `json:"job_id"`
	Status            domain.JobStatus `json:"status"`
	EstimatedDuration string           `json:"estimated_duration"`
}

// Generate enqueues a generation job. The body carries project_id next to
// the job type's own input fields.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	route, ok := generateRoutes[chi.URLParam(r, "kind")]
	if !ok {
		a.error(w, r, http.StatusNotFound, codeUnknownJobType, chi.URLParam(r, "kind"))
		return
	}
	var body json.RawMessage
	if err := decode(r, &body); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest, "")
		return
	}
	var target struct {
		ProjectID string `json:"project_id"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &target); err != nil {
			a.error(w, r, http.StatusBadRequest, codeBadRequest, "")
			return
		}
	}
	if _, err := uuid.Parse(target.ProjectID); err != nil {
		a.error(w, r, http.StatusBadRequest, codeInvalidInput, "project_id must be a uuid")
		return
	}
	if _, err := a.Projects.GetByID(r.Context(), target.ProjectID); err != nil {
		a.fail(w, r, err)
		return
	}

	params := queue.CreateParams{
		ProjectID: target.ProjectID,
		Type:      route.jobType,
		Input:     body,
	}
	if route.jobType != domain.JobTypeBootstrap {
		if err := a.pinEpisode(r.Context(), body, &params); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	job, err := a.Jobs.Create(r.Context(), params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, enqueueResp{
		JobID:             job.ID,
		Status:            job.Status,
		EstimatedDuration: route.estimatedDuration,
	})
}

// pinEpisode resolves the stored episode a request names, by id or by
// number, so the busy check sees both keys. An episode_id from another
// project is rejected. Malformed fields are left for the queue to report.
func (a *App) pinEpisode(ctx context.Context, body json.RawMessage, p *queue.CreateParams) error {
	var ref struct {
		EpisodeID     string `json:"episode_id"`
		EpisodeNumber int    `json:"episode_number"`
	}
	_ = json.Unmarshal(body, &ref)

	switch {
	case ref.EpisodeID != "":
		if _, err := uuid.Parse(ref.EpisodeID); err != nil {
			return nil
		}
		ep, err := a.Episodes.GetByID(ctx, ref.EpisodeID)
		if err != nil {
			return err
		}
		if ep.ProjectID != p.ProjectID {
			return fmt.Errorf("%w: episode_id belongs to another project", domain.ErrInvalidInput)
		}
		p.EpisodeID = &ep.ID
		p.EpisodeNumber = &ep.EpisodeNumber
	case ref.EpisodeNumber > 0:
		ep, err := a.Episodes.GetByNumber(ctx, p.ProjectID, ref.EpisodeNumber)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		p.EpisodeID = &ep.ID
	}
	return nil
}
