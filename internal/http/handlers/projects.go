package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/domain/jsoncfg"
	"github.com/MJbae/novel-craft/internal/export"
)

type createProjectReq struct {
	Name                string `json:"name" validate:"required,max=200"`
	Genre               string `json:"genre" validate:"required"`
	Tone                string `json:"tone"`
	ProtagonistKeywords string `json:"protagonist_keywords" validate:"required"`
	SupportingKeywords  string `json:"supporting_keywords"`
	ReferenceWorks      string `json:"reference_works"`
	BannedElements      string `json:"banned_elements"`
	Notes               string `json:"notes"`
}

func (req *createProjectReq) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Genre = strings.TrimSpace(req.Genre)
	req.Tone = strings.TrimSpace(req.Tone)
	req.ProtagonistKeywords = strings.TrimSpace(req.ProtagonistKeywords)
}

type projectDTO struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Genre         string                 `json:"genre"`
	Tone          string                 `json:"tone"`
	Synopsis      string                 `json:"synopsis"`
	Worldbuilding string                 `json:"worldbuilding"`
	PlotOutline   string                 `json:"plot_outline"`
	Settings      domain.ProjectSettings `json:"settings"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toProjectDTO(p domain.Project) projectDTO {
	return projectDTO{
		ID:            p.ID,
		Name:          p.Name,
		Genre:         p.Genre,
		Tone:          p.Tone,
		Synopsis:      p.Synopsis,
		Worldbuilding: p.Worldbuilding,
		PlotOutline:   p.PlotOutline,
		Settings:      p.Settings,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (a *App) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectReq
	if err := decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest, "")
		return
	}
	req.normalize()
	if err := jsoncfg.Validate(&req); err != nil {
		a.fail(w, r, err)
		return
	}

	project := &domain.Project{
		ID:    a.newID(),
		Name:  req.Name,
		Genre: req.Genre,
		Tone:  req.Tone,
		Settings: domain.ProjectSettings{
			ProtagonistKeywords: req.ProtagonistKeywords,
			SupportingKeywords:  req.SupportingKeywords,
			BannedElements:      req.BannedElements,
			Notes:               req.Notes,
			ReferenceWorks:      req.ReferenceWorks,
		},
	}
	if err := a.Projects.Create(r.Context(), project); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toProjectDTO(*project))
}

func (a *App) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.Projects.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]projectDTO, 0, len(projects))
	for _, p := range projects {
		items = append(items, toProjectDTO(p))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	project, err := a.Projects.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toProjectDTO(*project))
}

// ExportProject downloads the manuscript and settings. ?format picks txt or
// md; ?type=episodes|settings returns that single document, otherwise both
// are zipped together.
func (a *App) ExportProject(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	project, err := a.Projects.GetByID(ctx, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	format := export.ParseFormat(r.URL.Query().Get("format"))
	kind := r.URL.Query().Get("type")

	var characters []domain.Character
	if kind != "episodes" {
		if characters, err = a.Characters.ListByProject(ctx, id); err != nil {
			a.fail(w, r, err)
			return
		}
	}
	var episodes []domain.Episode
	if kind != "settings" {
		if episodes, err = a.Episodes.ListByProject(ctx, id); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	var (
		body        []byte
		filename    string
		contentType string
	)
	switch kind {
	case "settings":
		body = []byte(export.Settings(format, *project, characters))
		filename = project.Name + "_설정." + format.Ext()
		contentType = format.ContentType()
	case "episodes":
		body = []byte(export.Episodes(format, *project, episodes))
		filename = project.Name + "." + format.Ext()
		contentType = format.ContentType()
	default:
		body, err = export.Bundle(format, *project, characters, episodes, a.now())
		if err != nil {
			a.fail(w, r, err)
			return
		}
		filename = project.Name + ".zip"
		contentType = "application/zip"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
