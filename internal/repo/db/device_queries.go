package db

const deviceTokenUpsertQ = `
INSERT INTO device_tokens (token, user_id, platform, device_info, is_active, last_used_at)
VALUES ($1, $2, $3, $4, TRUE, NOW())
ON CONFLICT (token) DO UPDATE
SET user_id = EXCLUDED.user_id,
	platform = EXCLUDED.platform,
	device_info = EXCLUDED.device_info,
	is_active = TRUE,
	last_used_at = NOW()
`

const deviceTokenDeactivateQ = `
UPDATE device_tokens
SET is_active = FALSE
WHERE token = $1 AND user_id = $2 AND is_active
`

const deviceTokenListActiveQ = `
SELECT token
FROM device_tokens
WHERE user_id = $1 AND is_active
ORDER BY last_used_at DESC
`
