package db

const sessionCreateQ = `
INSERT INTO sessions (id, user_id, refresh_hash, ip, user_agent, device_name, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const sessionGetByHashQ = `
SELECT
	id,
	user_id,
	refresh_hash,
	ip,
	user_agent,
	device_name,
	created_at,
	expires_at,
	last_used_at,
	revoked_at
FROM sessions
WHERE refresh_hash = $1
`

const sessionRevokeByIDQ = `
UPDATE sessions
SET revoked_at = NOW(), last_used_at = NOW()
WHERE id = $1 AND revoked_at IS NULL
`

const sessionRevokeByHashQ = `
UPDATE sessions
SET revoked_at = NOW()
WHERE refresh_hash = $1 AND revoked_at IS NULL
RETURNING user_id
`
