package jsoncfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MJbae/novel-craft/internal/domain"
)

// JobInput is the typed payload stored in a job's input column. Each job type
// has exactly one concrete implementation.
type JobInput interface {
	JobType() domain.JobType
	Normalize()
}

// EpisodeTarget is implemented by inputs that address a single episode.
type EpisodeTarget interface {
	TargetEpisode() (episodeID *string, episodeNumber *int)
}

type BootstrapInput struct{}

func (BootstrapInput) JobType() domain.JobType { return domain.JobTypeBootstrap }
func (*BootstrapInput) Normalize()             {}

type OutlineInput struct {
	EpisodeNumber          int    `json:"episode_number" validate:"min=1"`
	AdditionalInstructions string `json:"additional_instructions,omitempty" validate:"max=4000"`
}

func (OutlineInput) JobType() domain.JobType { return domain.JobTypeOutline }
func (in *OutlineInput) Normalize() {
	in.AdditionalInstructions = strings.TrimSpace(in.AdditionalInstructions)
}
func (in OutlineInput) TargetEpisode() (*string, *int) { return nil, &in.EpisodeNumber }

type EpisodeInput struct {
	EpisodeNumber          int      `json:"episode_number" validate:"min=1"`
	Outline                *Outline `json:"outline,omitempty"`
	AdditionalInstructions string   `json:"additional_instructions,omitempty" validate:"max=4000"`
}

func (EpisodeInput) JobType() domain.JobType { return domain.JobTypeEpisodePass1 }
func (in *EpisodeInput) Normalize() {
	in.AdditionalInstructions = strings.TrimSpace(in.AdditionalInstructions)
	if in.Outline != nil {
		in.Outline.Normalize()
	}
}
func (in EpisodeInput) TargetEpisode() (*string, *int) { return nil, &in.EpisodeNumber }

type ReviseInput struct {
	EpisodeID           string `json:"episode_id" validate:"required,uuid"`
	RevisionInstruction string `json:"revision_instruction" validate:"required,max=4000"`
}

func (ReviseInput) JobType() domain.JobType { return domain.JobTypeRevise }
func (in *ReviseInput) Normalize() {
	in.EpisodeID = strings.TrimSpace(in.EpisodeID)
	in.RevisionInstruction = strings.TrimSpace(in.RevisionInstruction)
}
func (in ReviseInput) TargetEpisode() (*string, *int) { return &in.EpisodeID, nil }

type SummaryInput struct {
	EpisodeID string `json:"episode_id" validate:"required,uuid"`
}

func (SummaryInput) JobType() domain.JobType           { return domain.JobTypeSummary }
func (in *SummaryInput) Normalize()                    { in.EpisodeID = strings.TrimSpace(in.EpisodeID) }
func (in SummaryInput) TargetEpisode() (*string, *int) { return &in.EpisodeID, nil }

type EventExtractInput struct {
	EpisodeID string `json:"episode_id" validate:"required,uuid"`
}

func (EventExtractInput) JobType() domain.JobType           { return domain.JobTypeEventExtract }
func (in *EventExtractInput) Normalize()                    { in.EpisodeID = strings.TrimSpace(in.EpisodeID) }
func (in EventExtractInput) TargetEpisode() (*string, *int) { return &in.EpisodeID, nil }

func newInput(t domain.JobType) (JobInput, error) {
	switch t {
	case domain.JobTypeBootstrap:
		return &BootstrapInput{}, nil
	case domain.JobTypeOutline:
		return &OutlineInput{}, nil
	case domain.JobTypeEpisodePass1:
		return &EpisodeInput{}, nil
	case domain.JobTypeRevise:
		return &ReviseInput{}, nil
	case domain.JobTypeSummary:
		return &SummaryInput{}, nil
	case domain.JobTypeEventExtract:
		return &EventExtractInput{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownJobType, t)
	}
}

// DecodeInput parses raw into the payload type registered for t, applies
// defaults and validates it. An empty raw value decodes as an empty object.
func DecodeInput(t domain.JobType, raw []byte) (JobInput, error) {
	in, err := newInput(t)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, in); err != nil {
			return nil, fmt.Errorf("%w: decode %s input: %v", domain.ErrInvalidInput, t, err)
		}
	}
	in.Normalize()
	if err := Validate(in); err != nil {
		return nil, err
	}
	return in, nil
}
