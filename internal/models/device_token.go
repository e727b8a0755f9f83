package models

import (
	"time"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

func (p Platform) Valid() bool {
	return p == PlatformIOS || p == PlatformAndroid
}

// DeviceToken is a push registration string owned by one user at a time.
// Rows are deactivated, never deleted.
type DeviceToken struct {
	ID         int64     `db:"id"           json:"id"`
	Token      string    `db:"token"        json:"token"`
	UserID     uuid.UUID `db:"user_id"      json:"userId"`
	Platform   Platform  `db:"platform"     json:"platform"`
	DeviceInfo string    `db:"device_info"  json:"deviceInfo"`
	IsActive   bool      `db:"is_active"    json:"isActive"`
	LastUsedAt time.Time `db:"last_used_at" json:"lastUsedAt"`
	CreatedAt  time.Time `db:"created_at"   json:"createdAt"`
}
