package sqlinline

const jobColumns = `id::text, project_id::text, episode_id::text, job_type, status, step, progress, input,
       output, error, retry_count, max_retries, created_at, started_at, completed_at`

const QJobInsert = `--sql 9163c9ec-a20b-4a38-9471-9dff682d43f2
insert into generation_jobs (id, project_id, episode_id, job_type, status, progress, input, retry_count, max_retries)
values ($1::uuid, $2::uuid, $3::uuid, $4::text, 'queued', 0, $5::jsonb, 0, $6::int)
returning created_at;
`

const QJobGetByID = `--sql 607d5b52-8a1e-48f5-b31f-1a31df80d653
select ` + jobColumns + `
from generation_jobs
where id = $1::uuid;
`

const QJobNextQueued = `--sql bfd49c03-2116-4b8e-9152-8c44e439f59d
select ` + jobColumns + `
from generation_jobs
where status = 'queued'
order by created_at asc
limit 1;
`

// QJobUpdateStatus never touches a job that already reached a terminal status.
// started_at is stamped on entry into running; completed_at on entry into a
// terminal status.
const QJobUpdateStatus = `--sql 7a284e87-2a4a-44b0-b52f-eb7aed2de399
update generation_jobs
set status = $2::text,
    step = case when $3::boolean then null else coalesce($4::text, step) end,
    progress = coalesce($5::int, progress),
    output = coalesce($6::text, output),
    error = coalesce($7::text, error),
    started_at = case when $2::text = 'running' and status <> 'running' then now() else started_at end,
    completed_at = case when $2::text in ('completed', 'failed') then now() else completed_at end
where id = $1::uuid
  and status in ('queued', 'running');
`

const QJobIncrementRetry = `--sql 3697111f-fc08-4f60-a9ca-0d16bbe622df
update generation_jobs
set retry_count = retry_count + 1
where id = $1::uuid
returning retry_count;
`

const QJobCancel = `--sql 4433aaa9-ce5a-4a4b-b909-68dc028e0301
update generation_jobs
set status = 'failed',
    error = $2::text,
    completed_at = now()
where id = $1::uuid
  and status in ('queued', 'running');
`

const QJobFailRunning = `--sql a7f8c2e2-87c6-4d1f-ba08-0da58d068888
update generation_jobs
set status = 'failed',
    error = $1::text,
    completed_at = now()
where status = 'running';
`

const QJobCountRunning = `--sql a80a1e18-d25f-46f6-85b1-0109036f7db2
select count(*)
from generation_jobs
where status = 'running';
`

const QJobCountActiveForEpisode = `--sql 113881ea-807b-4f92-a308-7d4de76f95c5
select count(*)
from generation_jobs
where project_id = $1::uuid
  and status in ('queued', 'running')
  and job_type <> 'bootstrap'
  and (
      ($2::uuid is not null and episode_id = $2::uuid)
      or ($3::int is not null and input ? 'episode_number' and (input->>'episode_number')::int = $3::int)
  );
`
