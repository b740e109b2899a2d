package sqlinline

const QEventInsert = `--sql 8e51b197-9711-4181-8d93-7c532574b4dc
insert into episode_events (project_id, episode_id, event_type, description, characters_involved)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::jsonb);
`

const QEventRecent = `--sql 6524bff4-54c9-4ed2-a60f-e1fb7e2154e6
select id, project_id::text, episode_id::text, event_type, description, characters_involved, created_at
from episode_events
where project_id = $1::uuid
order by id desc
limit $2::int;
`
