package sqlinline

const QCharacterInsert = `--sql 26bfecd1-1759-42c0-ab11-2efd7fdcd854
insert into characters (id, project_id, name, role, personality, speech_style, behavioral_rules,
                        appearance, background, relationships, notes)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::jsonb, $7::jsonb, $8::text, $9::text, $10::text, $11::text)
returning created_at, updated_at;
`

const QCharacterListByProject = `--sql 61a5a107-c5ea-4af8-ba39-ded8bbead522
select id::text, project_id::text, name, role, personality, speech_style, behavioral_rules,
       appearance, background, relationships, notes, created_at, updated_at
from characters
where project_id = $1::uuid
order by case role when 'main' then 0 when 'supporting' then 1 else 2 end, created_at asc;
`
