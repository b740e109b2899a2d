package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MJbae/novel-craft/internal/domain"
)

type episodeDTO struct {
	ID               string               `json:"id"`
	ProjectID        string               `json:"project_id"`
	EpisodeNumber    int                  `json:"episode_number"`
	Title            string               `json:"title"`
	Status           domain.EpisodeStatus `json:"status"`
	Outline          json.RawMessage      `json:"outline"`
	Content          string               `json:"content,omitempty"`
	PreviousContent  string               `json:"previous_content,omitempty"`
	Summary          string               `json:"summary"`
	WordCount        int                  `json:"word_count"`
	StyleMetrics     json.RawMessage      `json:"style_metrics"`
	GenerationPrompt string               `json:"generation_prompt,omitempty"`
	UserNotes        string               `json:"user_notes"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// toEpisodeDTO leaves the bodies out unless full is set.
func toEpisodeDTO(ep domain.Episode, full bool) episodeDTO {
	dto := episodeDTO{
		ID:            ep.ID,
		ProjectID:     ep.ProjectID,
		EpisodeNumber: ep.EpisodeNumber,
		Title:         ep.Title,
		Status:        ep.Status,
		Outline:       rawOrNull(ep.Outline),
		Summary:       ep.Summary,
		WordCount:     ep.WordCount,
		StyleMetrics:  rawOrNull(ep.StyleMetrics),
		UserNotes:     ep.UserNotes,
		CreatedAt:     ep.CreatedAt,
		UpdatedAt:     ep.UpdatedAt,
	}
	if full {
		dto.Content = ep.Content
		dto.PreviousContent = ep.PreviousContent
		dto.GenerationPrompt = ep.GenerationPrompt
	}
	return dto
}

func rawOrNull(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return b
}

func (a *App) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	projectID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := a.Projects.GetByID(r.Context(), projectID); err != nil {
		a.fail(w, r, err)
		return
	}
	episodes, err := a.Episodes.ListByProject(r.Context(), projectID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]episodeDTO, 0, len(episodes))
	for _, ep := range episodes {
		items = append(items, toEpisodeDTO(ep, false))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GetEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	ep, err := a.Episodes.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toEpisodeDTO(*ep, true))
}
