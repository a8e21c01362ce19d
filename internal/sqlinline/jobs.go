package sqlinline

const jobColumns = `id, owner_id, status, source_assets, duration_seconds, quality,
       credits_charged, credits_refunded, result_ref, error_message,
       created_at, updated_at, completed_at`

const QInsertJob = `--sql 7f3c1a9e-52d4-4b06-9c2e-8a41f0b6d713
insert into generation_jobs
  (id, owner_id, status, source_assets, duration_seconds, quality, credits_charged)
values ($1, $2, 'pending', $3, $4, $5, $6);
`

const QSelectJobForOwner = `--sql 2b8e6f04-9d17-4c6a-b3f5-60c2ad97e481
select ` + jobColumns + `
from generation_jobs
where id = $1 and owner_id = $2;
`

// The compare-and-swap is a single conditional update; a stale expected
// status matches zero rows and the caller observes the lost race.
const QCompareAndSwapStatus = `--sql c91d4e57-3a28-4f19-8b60-1de7f52a0c94
update generation_jobs
set status = $3,
    updated_at = now(),
    completed_at = coalesce($4, completed_at),
    result_ref = coalesce($5, result_ref),
    error_message = coalesce($6, error_message)
where id = $1 and status = $2
returning ` + jobColumns + `;
`

const QListActiveOlderThan = `--sql 5a07bd31-e84c-4d92-a6f0-37c19e85b2d6
select ` + jobColumns + `
from generation_jobs
where status in ('pending', 'processing') and created_at < $1;
`

const QMarkJobRefunded = `--sql e46a92c8-17f5-4b83-95d1-c0384f6ab7e2
update generation_jobs
set credits_refunded = true, updated_at = now()
where id = $1 and credits_refunded = false;
`
