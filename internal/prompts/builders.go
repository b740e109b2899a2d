package prompts

import (
	"strings"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/validation"
)

type BootstrapParams struct {
	Genre               string
	Tone                string
	ProtagonistKeywords string
	SupportingKeywords  string
	BannedElements      string
	Notes               string
	ReferenceWorks      string
}

// BootstrapParamsFor reads the seeding fields of a project.
func BootstrapParamsFor(p domain.Project) BootstrapParams {
	return BootstrapParams{
		Genre:               p.Genre,
		Tone:                p.Tone,
		ProtagonistKeywords: p.Settings.ProtagonistKeywords,
		SupportingKeywords:  p.Settings.SupportingKeywords,
		BannedElements:      p.Settings.BannedElements,
		Notes:               p.Settings.Notes,
		ReferenceWorks:      p.Settings.ReferenceWorks,
	}
}

func (c *Catalogue) Bootstrap(p BootstrapParams) (string, error) {
	return c.render(NameBootstrap, p)
}

type OutlineParams struct {
	EpisodeNumber          int
	Genre                  string
	Synopsis               string
	PreviousSummaries      string
	PlotPosition           string
	ActiveEvents           string
	AdditionalInstructions string
}

func (c *Catalogue) Outline(p OutlineParams) (string, error) {
	return c.render(NameOutline, p)
}

type EpisodeParams struct {
	EpisodeNumber  int
	Genre          string
	Synopsis       string
	Tone           string
	BannedElements string
	Characters     []domain.Character
	// Context is the budgeted block of worldbuilding, summaries, events,
	// plot position, outline and instructions.
	Context    string
	HasOutline bool
}

func (c *Catalogue) Episode(p EpisodeParams) (string, error) {
	return c.render(NameEpisode, struct {
		EpisodeParams
		VoiceProfiles string
	}{p, VoiceProfiles(p.Characters)})
}

type StyleParams struct {
	Warnings   []validation.Warning
	Content    string
	Characters []domain.Character
}

func (c *Catalogue) Style(p StyleParams) (string, error) {
	return c.render(NameStyle, struct {
		StyleWarnings string
		Content       string
		VoiceProfiles string
	}{StyleWarnings(p.Warnings), p.Content, VoiceProfiles(p.Characters)})
}

// ManuscriptParams feeds the events and summary templates.
type ManuscriptParams struct {
	EpisodeNumber int
	Content       string
}

func (c *Catalogue) Events(p ManuscriptParams) (string, error) {
	return c.render(NameEvents, p)
}

func (c *Catalogue) Summary(p ManuscriptParams) (string, error) {
	return c.render(NameSummary, p)
}

type ReviseParams struct {
	CurrentContent      string
	Characters          []domain.Character
	RevisionInstruction string
}

func (c *Catalogue) Revise(p ReviseParams) (string, error) {
	return c.render(NameRevise, struct {
		CurrentContent      string
		VoiceProfiles       string
		RevisionInstruction string
	}{p.CurrentContent, VoiceProfiles(p.Characters), p.RevisionInstruction})
}

// StyleWarnings lists warnings as correction targets, one per line.
func StyleWarnings(warnings []validation.Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = "- " + w.Suggestion + " (현재: " + validation.FormatActual(w) + ", 목표: " + w.Expected + ")"
	}
	return strings.Join(lines, "\n")
}
