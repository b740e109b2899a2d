package domain

import "context"

// JobRepository persists generation jobs in a single table.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	NextQueued(ctx context.Context) (*Job, error)
	UpdateStatus(ctx context.Context, id string, status JobStatus, update StatusUpdate) error
	IncrementRetry(ctx context.Context, id string) (int, error)
	Cancel(ctx context.Context, id string) (bool, error)
	FailRunning(ctx context.Context, message string) (int64, error)
	CountRunning(ctx context.Context) (int, error)
	CountActiveForEpisode(ctx context.Context, projectID string, episodeID *string, episodeNumber *int) (int, error)
}

// ProjectRepository handles project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	UpdateBootstrap(ctx context.Context, id, synopsis, worldbuilding, plotOutline string) error
}

// CharacterRepository handles character persistence.
type CharacterRepository interface {
	Create(ctx context.Context, character *Character) error
	ListByProject(ctx context.Context, projectID string) ([]Character, error)
}

// EpisodeRepository handles episode persistence.
type EpisodeRepository interface {
	GetByID(ctx context.Context, id string) (*Episode, error)
	GetByNumber(ctx context.Context, projectID string, number int) (*Episode, error)
	ListByProject(ctx context.Context, projectID string) ([]Episode, error)
	RecentSummaries(ctx context.Context, projectID string, beforeNumber, limit int) ([]Episode, error)
	Insert(ctx context.Context, episode *Episode) error
	UpdateGenerated(ctx context.Context, episode *Episode) error
	UpdateOutline(ctx context.Context, id string, outline []byte, title string) error
	UpdateRevision(ctx context.Context, id, content string, wordCount int) error
	UpdateSummary(ctx context.Context, id, summary string) error
}

// EventRepository handles continuity event persistence.
type EventRepository interface {
	InsertAll(ctx context.Context, events []EpisodeEvent) error
	Recent(ctx context.Context, projectID string, limit int) ([]EpisodeEvent, error)
}
