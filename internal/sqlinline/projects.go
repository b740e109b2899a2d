package sqlinline

const projectColumns = `id::text, name, genre, tone, synopsis, worldbuilding, plot_outline, settings, created_at, updated_at`

const QProjectInsert = `--sql 1f8b70bc-6788-4ed1-bbde-99be1221552d
insert into projects (id, name, genre, tone, synopsis, worldbuilding, plot_outline, settings)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::jsonb)
returning created_at, updated_at;
`

const QProjectGetByID = `--sql 09c76104-fa6b-4922-9c00-549671a4e2f6
select ` + projectColumns + `
from projects
where id = $1::uuid;
`

const QProjectList = `--sql 3fe46dae-d78e-4fea-ae98-97685d8054c5
select ` + projectColumns + `
from projects
order by updated_at desc;
`

const QProjectUpdateBootstrap = `--sql 1e4ba6c6-e8cc-4a70-90e8-3d2b3f3f5a86
update projects
set synopsis = $2::text,
    worldbuilding = $3::text,
    plot_outline = $4::text,
    updated_at = now()
where id = $1::uuid;
`
