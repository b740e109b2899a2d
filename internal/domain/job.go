package domain

import "time"

// JobType enumerates supported generation job categories.
type JobType string

const (
	JobTypeBootstrap    JobType = "bootstrap"
	JobTypeOutline      JobType = "outline"
	JobTypeEpisodePass1 JobType = "episode_pass1"
	JobTypeRevise       JobType = "revise"
	JobTypeSummary      JobType = "summary"
	JobTypeEventExtract JobType = "event_extract"
)

// Valid reports whether t is one of the known job types.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeBootstrap, JobTypeOutline, JobTypeEpisodePass1, JobTypeRevise, JobTypeSummary, JobTypeEventExtract:
		return true
	}
	return false
}

// EpisodeScoped reports whether jobs of this type target a single episode.
func (t JobType) EpisodeScoped() bool {
	return t.Valid() && t != JobTypeBootstrap
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobStep marks the fine-grained phase a running job is in.
type JobStep string

const (
	StepPass1Generating  JobStep = "pass1_generating"
	StepValidating       JobStep = "validating"
	StepPass2Correcting  JobStep = "pass2_correcting"
	StepExtractingEvents JobStep = "extracting_events"
	StepSummarizing      JobStep = "summarizing"
)

const (
	// DefaultMaxRetries is applied when a job is created without an explicit limit.
	DefaultMaxRetries = 2

	CancelledMessage     = "Cancelled by user"
	ServerRestartMessage = "Server restarted while job was running"
	unknownStepLabel     = "unknown"
)

// Job is one queued unit of asynchronous generation work.
type Job struct {
	ID          string
	ProjectID   string
	EpisodeID   *string
	Type        JobType
	Status      JobStatus
	Step        *JobStep
	Progress    int
	Input       []byte
	Output      *string
	Error       *string
	RetryCount  int
	MaxRetries  int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// StepLabel returns the current step name or "unknown" when none is recorded.
func (j *Job) StepLabel() string {
	if j == nil || j.Step == nil || *j.Step == "" {
		return unknownStepLabel
	}
	return string(*j.Step)
}

// StatusUpdate carries the optional fields written alongside a status change.
// Nil pointers leave the stored value untouched; ClearStep resets step to NULL.
type StatusUpdate struct {
	Step      *JobStep
	ClearStep bool
	Progress  *int
	Output    *string
	Error     *string
}

// StepPtr is a small helper for building StatusUpdate literals.
func StepPtr(s JobStep) *JobStep { return &s }

// IntPtr is a small helper for building StatusUpdate literals.
func IntPtr(v int) *int { return &v }

// StringPtr is a small helper for building StatusUpdate literals.
func StringPtr(v string) *string { return &v }
