package sqlinline

// Debit decrements the balance and records the ledger entry in one
// statement; an unaffordable amount (or unknown user) selects no row.
const QDebitCredits = `--sql 91f2ab6d-4c03-47e8-b1d9-28a65ef0c357
with spend as (
  update user_credits
  set balance = balance - $2, updated_at = now()
  where user_id = $1 and balance >= $2
  returning balance
),
entry as (
  insert into credit_entries (id, user_id, job_id, amount, reason)
  select $5, $1, $3, -$2, $4 from spend
)
select balance from spend;
`

// Credit is idempotent per job: the partial unique index allows one
// positive entry per job_id, the conflict clause eats a duplicate
// refund, and the balance update only applies when the entry actually
// landed.
const QCreditCredits = `--sql 0d5e83f7-b612-49ca-a4e8-7f90c13d26ab
with entry as (
  insert into credit_entries (id, user_id, job_id, amount, reason)
  values ($5, $1, $3, $2, $4)
  on conflict (job_id) where amount > 0 do nothing
  returning amount
),
apply as (
  update user_credits
  set balance = balance + entry.amount, updated_at = now()
  from entry
  where user_credits.user_id = $1
  returning balance
)
select balance from apply;
`

const QSelectBalance = `--sql 6c38d1e0-a954-4f27-8e6b-b2d70c49f185
select balance from user_credits where user_id = $1;
`

const QGrantCredits = `--sql 3e7b50c2-68df-4a31-9c84-f51ae2d6b049
insert into user_credits (user_id, balance)
values ($1, $2)
on conflict (user_id) do update
set balance = user_credits.balance + excluded.balance, updated_at = now()
returning balance;
`
