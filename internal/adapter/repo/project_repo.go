package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/sqlinline"
)

// ProjectRepositoryPG implements domain.ProjectRepository backed by PostgreSQL.
type ProjectRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProjectRepository creates a new ProjectRepositoryPG.
func NewProjectRepository(sql infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{sql: sql}
}

func (r *ProjectRepositoryPG) Create(ctx context.Context, project *domain.Project) error {
	settings, err := json.Marshal(project.Settings)
	if err != nil {
		return fmt.Errorf("encode project settings: %w", err)
	}
	err = r.sql.QueryRow(ctx, sqlinline.QProjectInsert,
		project.ID,
		project.Name,
		project.Genre,
		project.Tone,
		project.Synopsis,
		project.Worldbuilding,
		project.PlotOutline,
		string(settings),
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	project, err := scanProject(r.sql.QueryRow(ctx, sqlinline.QProjectGetByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepositoryPG) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QProjectList)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateBootstrap stores the world-level fields produced by a bootstrap job.
func (r *ProjectRepositoryPG) UpdateBootstrap(ctx context.Context, id, synopsis, worldbuilding, plotOutline string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QProjectUpdateBootstrap, id, synopsis, worldbuilding, plotOutline)
	if err != nil {
		return fmt.Errorf("update project bootstrap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p        domain.Project
		settings []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Genre,
		&p.Tone,
		&p.Synopsis,
		&p.Worldbuilding,
		&p.PlotOutline,
		&settings,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &p.Settings); err != nil {
			return nil, fmt.Errorf("decode project settings: %w", err)
		}
	}
	return &p, nil
}

var _ domain.ProjectRepository = (*ProjectRepositoryPG)(nil)
