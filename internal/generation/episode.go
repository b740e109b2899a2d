package generation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MJbae/novel-craft/internal/contextpack"
	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/domain/jsoncfg"
	"github.com/MJbae/novel-craft/internal/metrics"
	"github.com/MJbae/novel-craft/internal/prompts"
	"github.com/MJbae/novel-craft/internal/validation"
)

// episode drafts an episode, corrects its style when validation warns, stores
// it and then extracts events and a summary. The last two steps never fail
// the job; their outcome is reported in the output.
func (s *Service) episode(ctx context.Context, job *domain.Job, in *jsoncfg.EpisodeInput) (jsoncfg.EpisodeOutput, error) {
	var out jsoncfg.EpisodeOutput
	log := s.logger.With().Str("job_id", job.ID).Int("episode_number", in.EpisodeNumber).Logger()

	project, err := s.loadProject(ctx, job.ProjectID)
	if err != nil {
		return out, err
	}
	characters, err := s.repos.Characters.ListByProject(ctx, project.ID)
	if err != nil {
		return out, err
	}
	outline := in.Outline
	if outline == nil {
		if outline, err = s.storedOutline(ctx, project.ID, in.EpisodeNumber); err != nil {
			return out, err
		}
	}
	recent, err := s.repos.Episodes.RecentSummaries(ctx, project.ID, in.EpisodeNumber, summaryWindow)
	if err != nil {
		return out, err
	}
	events, err := s.repos.Events.Recent(ctx, project.ID, eventWindow)
	if err != nil {
		return out, err
	}

	var outlineText string
	if outline != nil {
		b, err := json.MarshalIndent(outline, "", "  ")
		if err != nil {
			return out, err
		}
		outlineText = string(b)
	}
	block, usage := contextpack.Assemble(contextpack.Input{
		Project:          *project,
		Characters:       characters,
		RecentEpisodes:   recent,
		ActiveEvents:     events,
		PlotPosition:     project.PlotOutline,
		Outline:          outlineText,
		UserInstructions: in.AdditionalInstructions,
	}, contextpack.Options{TotalBudget: s.contextBudget})
	metrics.ObserveContextUsage(usage.UsedChars, usage.TotalBudget)
	log.Debug().Int("context_chars", usage.UsedChars).Int("context_budget", usage.TotalBudget).Msg("generation: context assembled")

	prompt, err := s.prompts.Episode(prompts.EpisodeParams{
		EpisodeNumber:  in.EpisodeNumber,
		Genre:          project.Genre,
		Synopsis:       project.Synopsis,
		Tone:           project.Tone,
		BannedElements: project.Settings.BannedElements,
		Characters:     characters,
		Context:        block,
		HasOutline:     outline != nil,
	})
	if err != nil {
		return out, err
	}

	// Pass 1.
	if err := s.report(ctx, job, domain.StepPass1Generating, 10); err != nil {
		return out, err
	}
	draft, err := s.generate(ctx, prompt, TimeoutEpisodePass1)
	if err != nil {
		return out, err
	}
	s.archiveDraft(ctx, job.ID, "pass1", draft)
	if err := s.report(ctx, job, "", 40); err != nil {
		return out, err
	}

	if err := s.report(ctx, job, domain.StepValidating, 40); err != nil {
		return out, err
	}
	result := validation.Validate(draft)
	if err := s.report(ctx, job, "", 50); err != nil {
		return out, err
	}

	// Pass 2 only runs when pass 1 drew warnings, and its failure keeps pass 1.
	final := draft
	out.Pass2 = jsoncfg.SubStepResult{Status: jsoncfg.SubStepSkipped}
	if len(result.Warnings) > 0 {
		if err := s.report(ctx, job, domain.StepPass2Correcting, 50); err != nil {
			return out, err
		}
		corrected, correctedResult, err := s.correctStyle(ctx, job, draft, result.Warnings, characters)
		switch {
		case err == nil:
			final, result = corrected, correctedResult
			out.Pass2 = jsoncfg.Completed()
		case abort(ctx, err):
			return out, err
		default:
			log.Warn().Err(err).Msg("generation: style correction failed, keeping pass 1")
			out.Pass2 = jsoncfg.Skipped(err)
		}
	}
	if err := s.report(ctx, job, "", 75); err != nil {
		return out, err
	}

	episodeID, err := s.saveEpisode(ctx, project.ID, in.EpisodeNumber, final, result.Metrics, outline, prompt)
	if err != nil {
		return out, err
	}
	if err := s.report(ctx, job, "", 80); err != nil {
		return out, err
	}

	if err := s.report(ctx, job, domain.StepExtractingEvents, 80); err != nil {
		return out, err
	}
	out.Events = []jsoncfg.Event{}
	extracted, err := s.extractEvents(ctx, project.ID, episodeID, in.EpisodeNumber, final)
	switch {
	case err == nil:
		out.Events = extracted
		out.EventExtraction = jsoncfg.Completed()
	case abort(ctx, err):
		return out, err
	default:
		log.Warn().Err(err).Msg("generation: event extraction failed")
		out.EventExtraction = jsoncfg.Skipped(err)
	}
	if err := s.report(ctx, job, "", 90); err != nil {
		return out, err
	}

	if err := s.report(ctx, job, domain.StepSummarizing, 90); err != nil {
		return out, err
	}
	summary, err := s.summarize(ctx, episodeID, in.EpisodeNumber, final)
	switch {
	case err == nil:
		out.Summary = &summary
		out.Summarization = jsoncfg.Completed()
	case abort(ctx, err):
		return out, err
	default:
		log.Warn().Err(err).Msg("generation: summary failed")
		out.Summarization = jsoncfg.Skipped(err)
	}

	out.EpisodeID = episodeID
	out.Content = final
	out.WordCount = result.Metrics.WordCount
	out.Outline = outline
	out.StyleMetrics = result.Metrics
	out.ValidationPassed = result.Passed
	out.Warnings = result.Warnings
	log.Info().
		Str("episode_id", episodeID).
		Int("word_count", out.WordCount).
		Bool("validation_passed", out.ValidationPassed).
		Msg("generation: episode generated")
	return out, nil
}

func (s *Service) correctStyle(ctx context.Context, job *domain.Job, draft string, warnings []validation.Warning, characters []domain.Character) (string, validation.Result, error) {
	prompt, err := s.prompts.Style(prompts.StyleParams{Warnings: warnings, Content: draft, Characters: characters})
	if err != nil {
		return "", validation.Result{}, err
	}
	corrected, err := s.generate(ctx, prompt, TimeoutEpisodePass2)
	if err != nil {
		return "", validation.Result{}, err
	}
	s.archiveDraft(ctx, job.ID, "pass2", corrected)
	if err := s.report(ctx, job, "", 70); err != nil {
		return "", validation.Result{}, err
	}
	return corrected, validation.Validate(corrected), nil
}

// storedOutline returns the outline saved on an existing episode, if any.
func (s *Service) storedOutline(ctx context.Context, projectID string, number int) (*jsoncfg.Outline, error) {
	ep, err := s.repos.Episodes.GetByNumber(ctx, projectID, number)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(ep.Outline) == 0 {
		return nil, nil
	}
	var outline jsoncfg.Outline
	if err := json.Unmarshal(ep.Outline, &outline); err != nil {
		s.logger.Warn().Err(err).Str("episode_id", ep.ID).Msg("generation: stored outline unreadable, ignoring")
		return nil, nil
	}
	outline.Normalize()
	return &outline, nil
}

// saveEpisode inserts the episode on first generation and otherwise replaces
// its body, keeping the old one as previous_content.
func (s *Service) saveEpisode(ctx context.Context, projectID string, number int, content string, m validation.Metrics, outline *jsoncfg.Outline, prompt string) (string, error) {
	html := TextToHTML(content)
	ep := &domain.Episode{
		ProjectID:        projectID,
		EpisodeNumber:    number,
		Status:           domain.EpisodeGenerated,
		Content:          html,
		WordCount:        WordCount(html),
		StyleMetrics:     jsoncfg.MustMarshal(m),
		GenerationPrompt: prompt,
	}
	if outline != nil {
		ep.Outline = jsoncfg.MustMarshal(outline)
		ep.Title = outline.Title
	}

	existing, err := s.repos.Episodes.GetByNumber(ctx, projectID, number)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ep.ID = s.newID()
		if err := s.repos.Episodes.Insert(ctx, ep); err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		ep.ID = existing.ID
		if err := s.repos.Episodes.UpdateGenerated(ctx, ep); err != nil {
			return "", err
		}
	}
	return ep.ID, nil
}

// abort reports whether a best-effort step failed because the job itself can
// no longer proceed.
func abort(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, domain.ErrJobTerminal)
}
