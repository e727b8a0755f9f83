package store

const saveQ = `
INSERT INTO credentials (id, access_token, refresh_token, user_id, email, name, updated_at)
VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
	access_token = excluded.access_token,
	refresh_token = excluded.refresh_token,
	user_id = excluded.user_id,
	email = excluded.email,
	name = excluded.name,
	updated_at = excluded.updated_at
`

const loadQ = `
SELECT access_token, refresh_token, user_id, email, name
FROM credentials
WHERE id = 1
`

const clearQ = `DELETE FROM credentials`
