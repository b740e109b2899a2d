package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/sqlinline"
)

// EventRepositoryPG implements domain.EventRepository.
type EventRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewEventRepository(sql infra.SQLExecutor) *EventRepositoryPG {
	return &EventRepositoryPG{sql: sql}
}

// InsertAll writes events one statement at a time; a failure leaves earlier rows in place.
func (r *EventRepositoryPG) InsertAll(ctx context.Context, events []domain.EpisodeEvent) error {
	for i, ev := range events {
		involved := ev.CharactersInvolved
		if involved == nil {
			involved = []string{}
		}
		chars, err := json.Marshal(involved)
		if err != nil {
			return fmt.Errorf("encode event %d characters: %w", i, err)
		}
		if _, err := r.sql.Exec(ctx, sqlinline.QEventInsert,
			ev.ProjectID,
			ev.EpisodeID,
			string(ev.EventType),
			ev.Description,
			string(chars),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}
	return nil
}

// Recent returns the newest events of a project, newest first.
func (r *EventRepositoryPG) Recent(ctx context.Context, projectID string, limit int) ([]domain.EpisodeEvent, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QEventRecent, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []domain.EpisodeEvent
	for rows.Next() {
		var (
			ev        domain.EpisodeEvent
			eventType string
			chars     []byte
		)
		if err := rows.Scan(&ev.ID, &ev.ProjectID, &ev.EpisodeID, &eventType, &ev.Description, &chars, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.EventType = domain.EventType(eventType)
		if len(chars) > 0 {
			if err := json.Unmarshal(chars, &ev.CharactersInvolved); err != nil {
				return nil, fmt.Errorf("decode event characters: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

var _ domain.EventRepository = (*EventRepositoryPG)(nil)
