package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/domain/jsoncfg"
	"github.com/MJbae/novel-craft/internal/prompts"
	"github.com/MJbae/novel-craft/internal/providers/codex"
)

// decodeResult extracts, normalizes and validates a structured model reply.
func decodeResult[T any, PT interface {
	*T
	Normalize()
}](raw string) (T, error) {
	v, err := codex.DecodeJSON[T](raw)
	if err != nil {
		return v, err
	}
	PT(&v).Normalize()
	if err := jsoncfg.Validate(PT(&v)); err != nil {
		return v, err
	}
	return v, nil
}

func (s *Service) bootstrap(ctx context.Context, job *domain.Job, _ *jsoncfg.BootstrapInput) (jsoncfg.BootstrapOutput, error) {
	var out jsoncfg.BootstrapOutput
	project, err := s.loadProject(ctx, job.ProjectID)
	if err != nil {
		return out, err
	}
	prompt, err := s.prompts.Bootstrap(prompts.BootstrapParamsFor(*project))
	if err != nil {
		return out, err
	}

	if err := s.report(ctx, job, domain.StepPass1Generating, 10); err != nil {
		return out, err
	}
	content, err := s.generate(ctx, prompt, TimeoutBootstrap)
	if err != nil {
		return out, err
	}
	if err := s.report(ctx, job, "", 70); err != nil {
		return out, err
	}

	result, err := decodeResult[jsoncfg.BootstrapResult](content)
	if err != nil {
		return out, fmt.Errorf("bootstrap result: %w", err)
	}
	if err := s.repos.Projects.UpdateBootstrap(ctx, project.ID, result.Synopsis, result.Worldbuilding, result.PlotOutline); err != nil {
		return out, err
	}

	out.BootstrapResult = result
	out.CharacterIDs = make([]string, 0, len(result.Characters))
	for _, c := range result.Characters {
		character := &domain.Character{
			ID:              s.newID(),
			ProjectID:       project.ID,
			Name:            c.Name,
			Role:            domain.CharacterRole(c.Role),
			Personality:     c.Personality,
			SpeechStyle:     c.SpeechStyle.Domain(),
			BehavioralRules: c.BehavioralRules.Domain(),
			Appearance:      c.Appearance,
			Background:      c.Background,
			Relationships:   c.Relationships,
		}
		if err := s.repos.Characters.Create(ctx, character); err != nil {
			return out, err
		}
		out.CharacterIDs = append(out.CharacterIDs, character.ID)
	}
	s.logger.Info().Str("job_id", job.ID).Int("characters", len(out.CharacterIDs)).Msg("generation: project bootstrapped")
	return out, nil
}

func (s *Service) outline(ctx context.Context, job *domain.Job, in *jsoncfg.OutlineInput) (jsoncfg.OutlineOutput, error) {
	var out jsoncfg.OutlineOutput
	project, err := s.loadProject(ctx, job.ProjectID)
	if err != nil {
		return out, err
	}
	summaries, err := s.repos.Episodes.RecentSummaries(ctx, project.ID, in.EpisodeNumber, summaryWindow)
	if err != nil {
		return out, err
	}
	events, err := s.repos.Events.Recent(ctx, project.ID, eventWindow)
	if err != nil {
		return out, err
	}

	prompt, err := s.prompts.Outline(prompts.OutlineParams{
		EpisodeNumber:          in.EpisodeNumber,
		Genre:                  project.Genre,
		Synopsis:               project.Synopsis,
		PreviousSummaries:      joinSummaries(summaries),
		PlotPosition:           project.PlotOutline,
		ActiveEvents:           joinEvents(events),
		AdditionalInstructions: in.AdditionalInstructions,
	})
	if err != nil {
		return out, err
	}

	if err := s.report(ctx, job, domain.StepPass1Generating, 20); err != nil {
		return out, err
	}
	content, err := s.generate(ctx, prompt, TimeoutOutline)
	if err != nil {
		return out, err
	}
	outline, err := decodeResult[jsoncfg.Outline](content)
	if err != nil {
		return out, fmt.Errorf("outline result: %w", err)
	}

	episodeID, err := s.saveOutline(ctx, job, in.EpisodeNumber, &outline)
	if err != nil {
		return out, err
	}
	out.Outline = outline
	out.EpisodeID = &episodeID
	return out, nil
}

// saveOutline stores the outline on the job's episode, or on the project's
// episode with that number, creating it when it does not exist yet.
func (s *Service) saveOutline(ctx context.Context, job *domain.Job, number int, outline *jsoncfg.Outline) (string, error) {
	raw := jsoncfg.MustMarshal(outline)
	if job.EpisodeID != nil && *job.EpisodeID != "" {
		return *job.EpisodeID, s.repos.Episodes.UpdateOutline(ctx, *job.EpisodeID, raw, outline.Title)
	}
	existing, err := s.repos.Episodes.GetByNumber(ctx, job.ProjectID, number)
	switch {
	case err == nil:
		return existing.ID, s.repos.Episodes.UpdateOutline(ctx, existing.ID, raw, outline.Title)
	case !errors.Is(err, domain.ErrNotFound):
		return "", err
	}
	ep := &domain.Episode{
		ID:            s.newID(),
		ProjectID:     job.ProjectID,
		EpisodeNumber: number,
		Title:         outline.Title,
		Status:        domain.EpisodeOutline,
		Outline:       raw,
	}
	if err := s.repos.Episodes.Insert(ctx, ep); err != nil {
		return "", err
	}
	return ep.ID, nil
}

func (s *Service) revise(ctx context.Context, job *domain.Job, in *jsoncfg.ReviseInput) (jsoncfg.ReviseOutput, error) {
	var out jsoncfg.ReviseOutput
	ep, err := s.loadJobEpisode(ctx, job, in.EpisodeID)
	if err != nil {
		return out, err
	}
	characters, err := s.repos.Characters.ListByProject(ctx, ep.ProjectID)
	if err != nil {
		return out, err
	}
	prompt, err := s.prompts.Revise(prompts.ReviseParams{
		CurrentContent:      ep.Content,
		Characters:          characters,
		RevisionInstruction: in.RevisionInstruction,
	})
	if err != nil {
		return out, err
	}

	if err := s.report(ctx, job, domain.StepPass1Generating, 20); err != nil {
		return out, err
	}
	content, err := s.generate(ctx, prompt, TimeoutRevise)
	if err != nil {
		return out, err
	}

	html := TextToHTML(content)
	count := WordCount(html)
	if err := s.repos.Episodes.UpdateRevision(ctx, ep.ID, html, count); err != nil {
		return out, err
	}
	return jsoncfg.ReviseOutput{EpisodeID: ep.ID, Content: html, WordCount: count}, nil
}

func (s *Service) summary(ctx context.Context, job *domain.Job, in *jsoncfg.SummaryInput) (jsoncfg.SummaryOutput, error) {
	var out jsoncfg.SummaryOutput
	ep, err := s.loadJobEpisode(ctx, job, in.EpisodeID)
	if err != nil {
		return out, err
	}
	if err := s.report(ctx, job, domain.StepSummarizing, 30); err != nil {
		return out, err
	}
	text, err := s.summarize(ctx, ep.ID, ep.EpisodeNumber, ep.Content)
	if err != nil {
		return out, err
	}
	return jsoncfg.SummaryOutput{EpisodeID: ep.ID, Summary: text}, nil
}

func (s *Service) eventExtract(ctx context.Context, job *domain.Job, in *jsoncfg.EventExtractInput) (jsoncfg.EventExtractOutput, error) {
	var out jsoncfg.EventExtractOutput
	ep, err := s.loadJobEpisode(ctx, job, in.EpisodeID)
	if err != nil {
		return out, err
	}
	if err := s.report(ctx, job, domain.StepExtractingEvents, 30); err != nil {
		return out, err
	}
	events, err := s.extractEvents(ctx, ep.ProjectID, ep.ID, ep.EpisodeNumber, ep.Content)
	if err != nil {
		return out, err
	}
	return jsoncfg.EventExtractOutput{EpisodeID: ep.ID, Events: events}, nil
}

// summarize generates and stores the summary of one episode.
func (s *Service) summarize(ctx context.Context, episodeID string, number int, content string) (string, error) {
	prompt, err := s.prompts.Summary(prompts.ManuscriptParams{EpisodeNumber: number, Content: content})
	if err != nil {
		return "", err
	}
	text, err := s.generate(ctx, prompt, TimeoutSummary)
	if err != nil {
		return "", err
	}
	if err := s.repos.Episodes.UpdateSummary(ctx, episodeID, text); err != nil {
		return "", err
	}
	return text, nil
}

// extractEvents generates, validates and stores the continuity events of one
// episode.
func (s *Service) extractEvents(ctx context.Context, projectID, episodeID string, number int, content string) ([]jsoncfg.Event, error) {
	prompt, err := s.prompts.Events(prompts.ManuscriptParams{EpisodeNumber: number, Content: content})
	if err != nil {
		return nil, err
	}
	reply, err := s.generate(ctx, prompt, TimeoutEventExtract)
	if err != nil {
		return nil, err
	}
	parsed, err := codex.DecodeJSON[[]jsoncfg.Event](reply)
	if err != nil {
		return nil, fmt.Errorf("events result: %w", err)
	}
	list := jsoncfg.EventList{Events: parsed}
	list.Normalize()
	if err := jsoncfg.Validate(&list); err != nil {
		return nil, fmt.Errorf("events result: %w", err)
	}
	if list.Events == nil {
		list.Events = []jsoncfg.Event{}
	}

	rows := make([]domain.EpisodeEvent, len(list.Events))
	for i, e := range list.Events {
		rows[i] = domain.EpisodeEvent{
			ProjectID:          projectID,
			EpisodeID:          episodeID,
			EventType:          domain.EventType(e.EventType),
			Description:        e.Description,
			CharactersInvolved: e.CharactersInvolved,
		}
	}
	if err := s.repos.Events.InsertAll(ctx, rows); err != nil {
		return nil, err
	}
	return list.Events, nil
}

func joinSummaries(episodes []domain.Episode) string {
	parts := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Summary != "" {
			parts = append(parts, ep.Summary)
		}
	}
	return strings.Join(parts, "\n\n")
}

func joinEvents(events []domain.EpisodeEvent) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = string(e.EventType) + ": " + e.Description
	}
	return strings.Join(lines, "\n")
}
