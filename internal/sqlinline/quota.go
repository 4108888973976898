package sqlinline

// Each statement applies the lazy 30-day period reset before its own
// mutation so the read-modify-write stays a single atomic step in Postgres.

const QQuotaGet = `--sql 7c1f4b2a-9d3e-4f61-8a27-5b9c0d4e1f83
insert into quota_records(user_id, category, period_start, used, quota_limit)
values ($1::uuid, $2::text, $3::timestamptz, 0, $4::int)
on conflict (user_id, category) do update
set used = case when $3::timestamptz - quota_records.period_start >= interval '30 days' then 0 else quota_records.used end,
    period_start = case when $3::timestamptz - quota_records.period_start >= interval '30 days' then $3::timestamptz else quota_records.period_start end,
    quota_limit = $4::int
returning period_start, used, quota_limit;
`

const QQuotaIncrement = `--sql 2e8d5a17-64cb-4f09-b3d1-7a2f84c6e095
insert into quota_records(user_id, category, period_start, used, quota_limit)
values ($1::uuid, $2::text, $3::timestamptz, 1, $4::int)
on conflict (user_id, category) do update
set used = case when $3::timestamptz - quota_records.period_start >= interval '30 days' then 1 else quota_records.used + 1 end,
    period_start = case when $3::timestamptz - quota_records.period_start >= interval '30 days' then $3::timestamptz else quota_records.period_start end,
    quota_limit = $4::int
returning period_start, used, quota_limit;
`

const QQuotaDecrement = `--sql 9b4e2c60-1f7a-4d58-a6c3-08e5d1b94f72
insert into quota_records(user_id, category, period_start, used, quota_limit)
values ($1::uuid, $2::text, $3::timestamptz, 0, $4::int)
on conflict (user_id, category) do update
set used = greatest(case when $3::timestamptz - quota_records.period_start >= interval '30 days' then 0 else quota_records.used - 1 end, 0),
    period_start = case when $3::timestamptz - quota_records.period_start >= interval '30 days' then $3::timestamptz else quota_records.period_start end,
    quota_limit = $4::int
returning period_start, used, quota_limit;
`
