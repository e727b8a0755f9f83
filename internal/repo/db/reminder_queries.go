package db

// reminderClaimQ takes a fresh claim, re-takes a failed one, or re-takes a claim
// whose run never completed it within $3 seconds. Sent and cancelled claims stay put.
const reminderClaimQ = `
INSERT INTO scheduled_reminders (record_id, due_date, status)
VALUES ($1, $2, 'claimed')
ON CONFLICT (record_id, due_date) DO UPDATE
SET status = 'claimed', updated_at = NOW()
WHERE scheduled_reminders.status = 'failed'
   OR (scheduled_reminders.status = 'claimed'
       AND scheduled_reminders.updated_at < NOW() - make_interval(secs => $3))
`

// reminderCompleteQ leaves a claim alone once it was cancelled mid-flight.
const reminderCompleteQ = `
UPDATE scheduled_reminders
SET status = $1, message_ids = $2, updated_at = NOW()
WHERE record_id = $3 AND due_date = $4 AND status = 'claimed'
`

const reminderCancelQ = `
UPDATE scheduled_reminders
SET status = 'cancelled', updated_at = NOW()
WHERE record_id = $1 AND status IN ('claimed', 'failed')
`

const notificationLogCreateQ = `
INSERT INTO notification_logs (user_id, record_id, kind, title, body, success_count, failure_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const recordOwnerQ = `
SELECT user_id
FROM records
WHERE id = $1 AND deleted_at IS NULL
`
