package jsoncfg

import "github.com/MJbae/novel-craft/internal/validation"

// SubStepStatus records whether a best-effort pipeline step landed.
type SubStepStatus string

const (
	SubStepCompleted SubStepStatus = "completed"
	SubStepSkipped   SubStepStatus = "skipped"
)

// SubStepResult surfaces a recoverable step outcome in the job output so
// failures stay visible to pollers.
type SubStepResult struct {
	Status SubStepStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
}

func Completed() SubStepResult { return SubStepResult{Status: SubStepCompleted} }

func Skipped(err error) SubStepResult {
	r := SubStepResult{Status: SubStepSkipped}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

type BootstrapOutput struct {
	BootstrapResult
	CharacterIDs []string `json:"character_ids"`
}

type OutlineOutput struct {
	Outline
	EpisodeID *string `json:"episode_id,omitempty"`
}

type EpisodeOutput struct {
	EpisodeID        string               `json:"episode_id"`
	Content          string               `json:"content"`
	WordCount        int                  `json:"word_count"`
	Outline          *Outline             `json:"outline,omitempty"`
	Summary          *string              `json:"summary"`
	StyleMetrics     validation.Metrics   `json:"style_metrics"`
	Events           []Event              `json:"events"`
	ValidationPassed bool                 `json:"validation_passed"`
	Warnings         []validation.Warning `json:"warnings"`
	Pass2            SubStepResult        `json:"pass2"`
	EventExtraction  SubStepResult        `json:"event_extraction"`
	Summarization    SubStepResult        `json:"summarization"`
}

type ReviseOutput struct {
	EpisodeID string `json:"episode_id"`
	Content   string `json:"content"`
	WordCount int    `json:"word_count"`
}

type SummaryOutput struct {
	EpisodeID string `json:"episode_id"`
	Summary   string `json:"summary"`
}

type EventExtractOutput struct {
	EpisodeID string  `json:"episode_id"`
	Events    []Event `json:"events"`
}
