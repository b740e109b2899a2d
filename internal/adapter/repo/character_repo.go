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

// CharacterRepositoryPG implements domain.CharacterRepository.
type CharacterRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewCharacterRepository(sql infra.SQLExecutor) *CharacterRepositoryPG {
	return &CharacterRepositoryPG{sql: sql}
}

func (r *CharacterRepositoryPG) Create(ctx context.Context, c *domain.Character) error {
	speech, err := json.Marshal(c.SpeechStyle)
	if err != nil {
		return fmt.Errorf("encode speech style: %w", err)
	}
	rules, err := json.Marshal(c.BehavioralRules)
	if err != nil {
		return fmt.Errorf("encode behavioral rules: %w", err)
	}
	err = r.sql.QueryRow(ctx, sqlinline.QCharacterInsert,
		c.ID,
		c.ProjectID,
		c.Name,
		string(c.Role),
		c.Personality,
		string(speech),
		string(rules),
		c.Appearance,
		c.Background,
		c.Relationships,
		c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert character: %w", err)
	}
	return nil
}

// ListByProject returns main characters first, then supporting, then minor.
func (r *CharacterRepositoryPG) ListByProject(ctx context.Context, projectID string) ([]domain.Character, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCharacterListByProject, projectID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var out []domain.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCharacter(row pgx.Row) (*domain.Character, error) {
	var (
		c      domain.Character
		role   string
		speech []byte
		rules  []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.ProjectID,
		&c.Name,
		&role,
		&c.Personality,
		&speech,
		&rules,
		&c.Appearance,
		&c.Background,
		&c.Relationships,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Role = domain.CharacterRole(role)
	if len(speech) > 0 {
		if err := json.Unmarshal(speech, &c.SpeechStyle); err != nil {
			return nil, fmt.Errorf("decode speech style: %w", err)
		}
	}
	if len(rules) > 0 {
		if err := json.Unmarshal(rules, &c.BehavioralRules); err != nil {
			return nil, fmt.Errorf("decode behavioral rules: %w", err)
		}
	}
	return &c, nil
}

var _ domain.CharacterRepository = (*CharacterRepositoryPG)(nil)
