package sqlinline

const episodeColumns = `id::text, project_id::text, episode_number, title, status, outline, content, previous_content,
       summary, word_count, style_metrics, generation_prompt, user_notes, created_at, updated_at`

const QEpisodeGetByID = `--sql 2f676ef7-eeab-476e-9c89-d827f03c863e
select ` + episodeColumns + `
from episodes
where id = $1::uuid;
`

const QEpisodeGetByNumber = `--sql 1b825abb-3aa7-47ae-9bb7-51ddadd0f380
select ` + episodeColumns + `
from episodes
where project_id = $1::uuid
  and episode_number = $2::int;
`

const QEpisodeListByProject = `--sql faf46fcf-85ad-4b9b-a33b-963d480bcf78
select ` + episodeColumns + `
from episodes
where project_id = $1::uuid
order by episode_number asc;
`

const QEpisodeRecentSummaries = `--sql 07f9e109-5fea-4c78-9c82-3f3e2e88981d
select ` + episodeColumns + `
from episodes
where project_id = $1::uuid
  and episode_number < $2::int
  and summary <> ''
order by episode_number desc
limit $3::int;
`

const QEpisodeInsert = `--sql aac59abd-5104-4adb-9cc0-9ffae1e26cec
insert into episodes (id, project_id, episode_number, title, status, outline, content, summary,
                      word_count, style_metrics, generation_prompt)
values ($1::uuid, $2::uuid, $3::int, $4::text, $5::text, $6::jsonb, $7::text, $8::text, $9::int, $10::jsonb, $11::text)
returning created_at, updated_at;
`

const QEpisodeUpdateGenerated = `--sql 0f451bcb-dd1c-49da-8a37-7c5b8f933961
update episodes
set previous_content = content,
    content = $2::text,
    word_count = $3::int,
    style_metrics = $4::jsonb,
    status = $5::text,
    outline = coalesce($6::jsonb, outline),
    title = coalesce(nullif($7::text, ''), title),
    generation_prompt = $8::text,
    updated_at = now()
where id = $1::uuid;
`

const QEpisodeUpdateOutline = `--sql 95418e4e-9c3a-4256-86ca-526aed209cee
update episodes
set outline = $2::jsonb,
    title = coalesce(nullif($3::text, ''), title),
    status = 'outline',
    updated_at = now()
where id = $1::uuid;
`

const QEpisodeUpdateRevision = `--sql 8122d0b2-9bd6-4872-9eae-9800ec352a5f
update episodes
set previous_content = content,
    content = $2::text,
    word_count = $3::int,
    status = 'edited',
    updated_at = now()
where id = $1::uuid;
`

const QEpisodeUpdateSummary = `--sql c602d03c-8dde-4020-a661-fbce2114fc2a
update episodes
set summary = $2::text,
    updated_at = now()
where id = $1::uuid;
`
