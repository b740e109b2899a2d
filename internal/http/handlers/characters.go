package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/domain/jsoncfg"
)

type createCharacterReq struct {
	Name            string                  `json:"name" validate:"required,max=100"`
	Role            string                  `json:"role" validate:"oneof=main supporting minor"`
	Personality     string                  `json:"personality"`
	SpeechStyle     jsoncfg.SpeechStyle     `json:"speech_style"`
	BehavioralRules jsoncfg.BehavioralRules `json:"behavioral_rules"`
	Appearance      string                  `json:"appearance"`
	Background      string                  `json:"background"`
	Relationships   string                  `json:"relationships"`
	Notes           string                  `json:"notes"`
}

func (req *createCharacterReq) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.TrimSpace(req.Role)
	if req.Role == "" {
		req.Role = string(domain.RoleMain)
	}
	req.SpeechStyle.Normalize()
	req.BehavioralRules.Normalize()
}

type characterDTO struct {
	ID              string                 `json:"id"`
	ProjectID       string                 `json:"project_id"`
	Name            string                 `json:"name"`
	Role            domain.CharacterRole   `json:"role"`
	Personality     string                 `json:"personality"`
	SpeechStyle     domain.SpeechStyle     `json:"speech_style"`
	BehavioralRules domain.BehavioralRules `json:"behavioral_rules"`
	Appearance      string                 `json:"appearance"`
	Background      string                 `json:"background"`
	Relationships   string                 `json:"relationships"`
	Notes           string                 `json:"notes"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func toCharacterDTO(c domain.Character) characterDTO {
	return characterDTO{
		ID:              c.ID,
		ProjectID:       c.ProjectID,
		Name:            c.Name,
		Role:            c.Role,
		Personality:     c.Personality,
		SpeechStyle:     c.SpeechStyle,
		BehavioralRules: c.BehavioralRules,
		Appearance:      c.Appearance,
		Background:      c.Background,
		Relationships:   c.Relationships,
		Notes:           c.Notes,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (a *App) ListCharacters(w http.ResponseWriter, r *http.Request) {
	projectID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := a.Projects.GetByID(r.Context(), projectID); err != nil {
		a.fail(w, r, err)
		return
	}
	characters, err := a.Characters.ListByProject(r.Context(), projectID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]characterDTO, 0, len(characters))
	for _, c := range characters {
		items = append(items, toCharacterDTO(c))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	projectID, ok := a.pathID(w, r, "id")
	if !ok {
		return
	}
	var req createCharacterReq
	if err := decode(r, &req); err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest, "")
		return
	}
	req.normalize()
	if err := jsoncfg.Validate(&req); err != nil {
		a.fail(w, r, err)
		return
	}
	if _, err := a.Projects.GetByID(r.Context(), projectID); err != nil {
		a.fail(w, r, err)
		return
	}

	character := &domain.Character{
		ID:              a.newID(),
		ProjectID:       projectID,
		Name:            req.Name,
		Role:            domain.CharacterRole(req.Role),
		Personality:     req.Personality,
		SpeechStyle:     req.SpeechStyle.Domain(),
		BehavioralRules: req.BehavioralRules.Domain(),
		Appearance:      req.Appearance,
		Background:      req.Background,
		Relationships:   req.Relationships,
		Notes:           req.Notes,
	}
	if err := a.Characters.Create(r.Context(), character); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toCharacterDTO(*character))
}
