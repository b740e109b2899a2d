package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/sqlinline"
)

// EpisodeRepositoryPG implements domain.EpisodeRepository.
type EpisodeRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewEpisodeRepository(sql infra.SQLExecutor) *EpisodeRepositoryPG {
	return &EpisodeRepositoryPG{sql: sql}
}

func (r *EpisodeRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Episode, error) {
	return r.getOne(ctx, sqlinline.QEpisodeGetByID, id)
}

func (r *EpisodeRepositoryPG) GetByNumber(ctx context.Context, projectID string, number int) (*domain.Episode, error) {
	return r.getOne(ctx, sqlinline.QEpisodeGetByNumber, projectID, number)
}

func (r *EpisodeRepositoryPG) getOne(ctx context.Context, query string, args ...any) (*domain.Episode, error) {
	ep, err := scanEpisode(r.sql.QueryRow(ctx, query, args...))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ep, nil
}

func (r *EpisodeRepositoryPG) ListByProject(ctx context.Context, projectID string) ([]domain.Episode, error) {
	return r.list(ctx, sqlinline.QEpisodeListByProject, projectID)
}

// RecentSummaries returns up to limit summarized episodes numbered below
// beforeNumber, newest first.
func (r *EpisodeRepositoryPG) RecentSummaries(ctx context.Context, projectID string, beforeNumber, limit int) ([]domain.Episode, error) {
	return r.list(ctx, sqlinline.QEpisodeRecentSummaries, projectID, beforeNumber, limit)
}

func (r *EpisodeRepositoryPG) list(ctx context.Context, query string, args ...any) ([]domain.Episode, error) {
	rows, err := r.sql.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []domain.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ep)
	}
	return out, rows.Err()
}

func (r *EpisodeRepositoryPG) Insert(ctx context.Context, ep *domain.Episode) error {
	err := r.sql.QueryRow(ctx, sqlinline.QEpisodeInsert,
		ep.ID,
		ep.ProjectID,
		ep.EpisodeNumber,
		ep.Title,
		string(ep.Status),
		jsonbArg(ep.Outline),
		ep.Content,
		ep.Summary,
		ep.WordCount,
		jsonbArg(ep.StyleMetrics),
		ep.GenerationPrompt,
	).Scan(&ep.CreatedAt, &ep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// UpdateGenerated replaces the body, keeping the old one in previous_content.
func (r *EpisodeRepositoryPG) UpdateGenerated(ctx context.Context, ep *domain.Episode) error {
	return r.exec(ctx, "update generated episode", sqlinline.QEpisodeUpdateGenerated,
		ep.ID,
		ep.Content,
		ep.WordCount,
		jsonbArg(ep.StyleMetrics),
		string(ep.Status),
		jsonbArg(ep.Outline),
		ep.Title,
		ep.GenerationPrompt,
	)
}

func (r *EpisodeRepositoryPG) UpdateOutline(ctx context.Context, id string, outline []byte, title string) error {
	return r.exec(ctx, "update episode outline", sqlinline.QEpisodeUpdateOutline, id, jsonbArg(outline), title)
}

func (r *EpisodeRepositoryPG) UpdateRevision(ctx context.Context, id, content string, wordCount int) error {
	return r.exec(ctx, "update episode revision", sqlinline.QEpisodeUpdateRevision, id, content, wordCount)
}

func (r *EpisodeRepositoryPG) UpdateSummary(ctx context.Context, id, summary string) error {
	return r.exec(ctx, "update episode summary", sqlinline.QEpisodeUpdateSummary, id, summary)
}

func (r *EpisodeRepositoryPG) exec(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.sql.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEpisode(row pgx.Row) (*domain.Episode, error) {
	var (
		ep     domain.Episode
		status string
	)
	if err := row.Scan(
		&ep.ID,
		&ep.ProjectID,
		&ep.EpisodeNumber,
		&ep.Title,
		&status,
		&ep.Outline,
		&ep.Content,
		&ep.PreviousContent,
		&ep.Summary,
		&ep.WordCount,
		&ep.StyleMetrics,
		&ep.GenerationPrompt,
		&ep.UserNotes,
		&ep.CreatedAt,
		&ep.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ep.Status = domain.EpisodeStatus(status)
	return &ep, nil
}

// jsonbArg maps an empty document to SQL NULL.
func jsonbArg(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	return &s
}

var _ domain.EpisodeRepository = (*EpisodeRepositoryPG)(nil)
