package domain

import "time"

// ProjectSettings holds the free-form seeding notes entered when a project is created.
type ProjectSettings struct {
	ProtagonistKeywords string `json:"protagonist_keywords,omitempty"`
	SupportingKeywords  string `json:"supporting_keywords,omitempty"`
	BannedElements      string `json:"banned_elements,omitempty"`
	Notes               string `json:"notes,omitempty"`
	ReferenceWorks      string `json:"reference_works,omitempty"`
}

// Project is a serialized novel and its world-level settings.
type Project struct {
	ID            string
	Name          string
	Genre         string
	Tone          string
	Synopsis      string
	Worldbuilding string
	PlotOutline   string
	Settings      ProjectSettings
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CharacterRole classifies how prominent a character is.
type CharacterRole string

const (
	RoleMain       CharacterRole = "main"
	RoleSupporting CharacterRole = "supporting"
	RoleMinor      CharacterRole = "minor"
)

// SpeechStyle describes how a character talks.
type SpeechStyle struct {
	Endings           []string `json:"endings"`
	BannedEndings     []string `json:"banned_endings"`
	Catchphrases      []string `json:"catchphrases"`
	Formality         string   `json:"formality"`
	AvgDialogueLength string   `json:"avg_dialogue_length"`
	EmotionStyle      string   `json:"emotion_style"`
}

// BehavioralRules constrains what a character will and will not do.
type BehavioralRules struct {
	Values        []string `json:"values"`
	NeverDoes     []string `json:"never_does"`
	ConflictStyle string   `json:"conflict_style"`
}

// Character is a voice-profiled cast member of a project.
type Character struct {
	ID              string
	ProjectID       string
	Name            string
	Role            CharacterRole
	Personality     string
	SpeechStyle     SpeechStyle
	BehavioralRules BehavioralRules
	Appearance      string
	Background      string
	Relationships   string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EpisodeStatus tracks editorial progress of an episode.
type EpisodeStatus string

const (
	EpisodeDraft      EpisodeStatus = "draft"
	EpisodeOutline    EpisodeStatus = "outline"
	EpisodeGenerating EpisodeStatus = "generating"
	EpisodeGenerated  EpisodeStatus = "generated"
	EpisodeEdited     EpisodeStatus = "edited"
	EpisodeFinal      EpisodeStatus = "final"
)

// Episode is one installment of a project.
type Episode struct {
	ID               string
	ProjectID        string
	EpisodeNumber    int
	Title            string
	Status           EpisodeStatus
	Outline          []byte
	Content          string
	PreviousContent  string
	Summary          string
	WordCount        int
	StyleMetrics     []byte
	GenerationPrompt string
	UserNotes        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EventType classifies a continuity event extracted from an episode.
type EventType string

const (
	EventPlot           EventType = "plot"
	EventCharacterState EventType = "character_state"
	EventRelationship   EventType = "relationship"
	EventForeshadow     EventType = "foreshadow"
)

// EpisodeEvent is a cross-episode continuity record.
type EpisodeEvent struct {
	ID                 int64
	ProjectID          string
	EpisodeID          string
	EventType          EventType
	Description        string
	CharactersInvolved []string
	CreatedAt          time.Time
}
