package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one login. Only the refresh token hash is stored.
type Session struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	UserID      uuid.UUID  `db:"user_id"      json:"userId"`
	RefreshHash string     `db:"refresh_hash" json:"-"`
	IP          string     `db:"ip"           json:"ip"`
	UA          string     `db:"user_agent"   json:"ua"`
	DeviceName  string     `db:"device_name"  json:"deviceName"`
	CreatedAt   time.Time  `db:"created_at"   json:"createdAt"`
	ExpiresAt   time.Time  `db:"expires_at"   json:"expiresAt"`
	LastUsedAt  time.Time  `db:"last_used_at" json:"lastUsedAt"`
	RevokedAt   *time.Time `db:"revoked_at"   json:"revokedAt,omitempty"`
}

type Device struct {
	Name string `json:"name"`
	UA   string `json:"ua"`
	IP   string `json:"ip"`
}

// AccessClaim is what a verified access token says about its bearer.
type AccessClaim struct {
	UID       uuid.UUID `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
