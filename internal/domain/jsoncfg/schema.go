package jsoncfg

import (
	"strings"

	"github.com/MJbae/novel-craft/internal/domain"
)

const (
	DefaultFormality          = "반말_기본"
	DefaultEmotionStyle       = "절제형"
	DefaultAvgDialogueLength  = "15~40자"
	DefaultConflictStyle      = "직접 대면"
	DefaultEstimatedWordCount = 8000
)

// SpeechStyle mirrors domain.SpeechStyle with validation rules for model output.
type SpeechStyle struct {
	Endings           []string `json:"endings"`
	BannedEndings     []string `json:"banned_endings"`
	Catchphrases      []string `json:"catchphrases"`
	Formality         string   `json:"formality" validate:"oneof=반말_기본 존댓말_기본 상대에_따라"`
	AvgDialogueLength string   `json:"avg_dialogue_length"`
	EmotionStyle      string   `json:"emotion_style" validate:"oneof=절제형 격정형 유머형 냉소형 감성형"`
}

// Normalize fills the defaults a missing field falls back to.
func (s *SpeechStyle) Normalize() {
	if s.Endings == nil {
		s.Endings = []string{}
	}
	if s.BannedEndings == nil {
		s.BannedEndings = []string{}
	}
	if s.Catchphrases == nil {
		s.Catchphrases = []string{}
	}
	if strings.TrimSpace(s.Formality) == "" {
		s.Formality = DefaultFormality
	}
	if strings.TrimSpace(s.AvgDialogueLength) == "" {
		s.AvgDialogueLength = DefaultAvgDialogueLength
	}
	if strings.TrimSpace(s.EmotionStyle) == "" {
		s.EmotionStyle = DefaultEmotionStyle
	}
}

func (s SpeechStyle) Domain() domain.SpeechStyle {
	return domain.SpeechStyle(s)
}

type BehavioralRules struct {
	Values        []string `json:"values"`
	NeverDoes     []string `json:"never_does"`
	ConflictStyle string   `json:"conflict_style"`
}

func (b *BehavioralRules) Normalize() {
	if b.Values == nil {
		b.Values = []string{}
	}
	if b.NeverDoes == nil {
		b.NeverDoes = []string{}
	}
	if strings.TrimSpace(b.ConflictStyle) == "" {
		b.ConflictStyle = DefaultConflictStyle
	}
}

func (b BehavioralRules) Domain() domain.BehavioralRules {
	return domain.BehavioralRules(b)
}

// BootstrapCharacter is one generated cast member.
type BootstrapCharacter struct {
	Name            string          `json:"name" validate:"required"`
	Role            string          `json:"role" validate:"oneof=main supporting minor"`
	Personality     string          `json:"personality"`
	SpeechStyle     SpeechStyle     `json:"speech_style"`
	BehavioralRules BehavioralRules `json:"behavioral_rules"`
	Appearance      string          `json:"appearance"`
	Background      string          `json:"background"`
	Relationships   string          `json:"relationships"`
}

// BootstrapResult is the structured world seed returned by the bootstrap prompt.
type BootstrapResult struct {
	Synopsis      string               `json:"synopsis"`
	Worldbuilding string               `json:"worldbuilding"`
	Characters    []BootstrapCharacter `json:"characters" validate:"required,min=1,dive"`
	PlotOutline   string               `json:"plot_outline"`
}

func (r *BootstrapResult) Normalize() {
	for i := range r.Characters {
		r.Characters[i].SpeechStyle.Normalize()
		r.Characters[i].BehavioralRules.Normalize()
	}
}

// Scene is one beat of an episode outline.
type Scene struct {
	SceneNumber      int      `json:"scene_number" validate:"min=1"`
	Goal             string   `json:"goal" validate:"required"`
	Conflict         string   `json:"conflict" validate:"required"`
	Twist            *string  `json:"twist"`
	Characters       []string `json:"characters"`
	EmotionIntensity int      `json:"emotion_intensity" validate:"min=1,max=10"`
}

// Outline is the scene-by-scene plan for one episode.
type Outline struct {
	Title              string  `json:"title,omitempty"`
	Scenes             []Scene `json:"scenes" validate:"min=3,max=5,dive"`
	EndingHook         string  `json:"ending_hook" validate:"required"`
	EstimatedWordCount int     `json:"estimated_word_count"`
}

func (o *Outline) Normalize() {
	if o.EstimatedWordCount == 0 {
		o.EstimatedWordCount = DefaultEstimatedWordCount
	}
	for i := range o.Scenes {
		if o.Scenes[i].Characters == nil {
			o.Scenes[i].Characters = []string{}
		}
	}
}

// Event is one extracted continuity entry.
type Event struct {
	EventType          string   `json:"event_type" validate:"oneof=plot character_state relationship foreshadow"`
	Description        string   `json:"description" validate:"required"`
	CharactersInvolved []string `json:"characters_involved"`
}

// EventList wraps a slice so the dive rule applies to every element.
type EventList struct {
	Events []Event `json:"events" validate:"dive"`
}

func (l *EventList) Normalize() {
	for i := range l.Events {
		if l.Events[i].CharactersInvolved == nil {
			l.Events[i].CharactersInvolved = []string{}
		}
	}
}
