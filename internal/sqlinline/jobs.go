package sqlinline

const QJobInsert = `--sql 4a9f1c3e-72b8-4d06-9e54-c1d8a03b6f27
insert into generation_jobs(id, user_id, category, payload, state, attempt, charged, progress)
values ($1::uuid, $2::uuid, $3::text, $4::jsonb, 'queued', 0, false, 0);
`

const QJobGet = `--sql d6e03b58-8f12-4ca9-b7a4-3e95f60c218d
select id, user_id, category, payload, state, attempt, charged, progress,
       coalesce(result_ref, ''), coalesce(failure_reason, ''), created_at, updated_at
from generation_jobs
where id = $1::uuid;
`

const QJobClaim = `--sql 1b7d9e42-c5a0-4f83-86d2-94f0c7a3e516
with next_job as (
    select id
    from generation_jobs
    where state = 'queued' and category = $1::text
    order by created_at asc
    for update skip locked
    limit 1
),
claimed as (
    update generation_jobs
    set state = 'active', updated_at = now()
    where id in (select id from next_job)
    returning id, user_id, category, payload, state, attempt, charged, progress,
              coalesce(result_ref, ''), coalesce(failure_reason, ''), created_at, updated_at
)
select * from claimed;
`

const QJobSetAttempt = `--sql f3c82a61-05de-47b9-a1e8-6b24d9c7f035
update generation_jobs
set attempt = greatest(attempt, $2::int), updated_at = now()
where id = $1::uuid and state not in ('completed', 'failed');
`

const QJobMarkCharged = `--sql 2f6e14b9-8a57-4d30-b6ce-41a92d7e80f3
update generation_jobs
set charged = true, updated_at = now()
where id = $1::uuid and state not in ('completed', 'failed');
`

const QJobSetProgress = `--sql 8e51b0d7-3a46-4c92-bf07-25a8e1d64c93
update generation_jobs
set progress = greatest(progress, $2::int), updated_at = now()
where id = $1::uuid and state not in ('completed', 'failed');
`

const QJobRequeue = `--sql 60a4f8c2-e19b-4375-8d60-7c3f5a2b9e14
update generation_jobs
set state = 'queued', updated_at = now()
where id = $1::uuid and state not in ('completed', 'failed');
`

const QJobComplete = `--sql c2d75f90-4b18-4e6a-93c5-0f8a61e2d7b4
update generation_jobs
set state = 'completed', progress = 100, result_ref = $2::text, updated_at = now()
where id = $1::uuid and state not in ('completed', 'failed');
`

const QJobFail = `--sql a98c4e26-7d03-4baf-b561-e2c79f0d8a35
update generation_jobs
set state = 'failed', failure_reason = $2::text, updated_at = now()
where id = $1::uuid and state not in ('completed', 'failed');
`

const QJobStaleActive = `--sql 5d2b8a74-16fc-49e0-8c3b-d94a70e5f126
select id, user_id, category, payload, state, attempt, charged, progress,
       coalesce(result_ref, ''), coalesce(failure_reason, ''), created_at, updated_at
from generation_jobs
where state = 'active' and updated_at < $1::timestamptz
order by updated_at asc;
`
