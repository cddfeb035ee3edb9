package model

import "time"

// User is the persisted account record behind the one-time-code login.
// Session state itself is volatile and never stored here.
type User struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Email         string `json:"email" gorm:"uniqueIndex;size:255"`
	AuthCode      string `json:"-" gorm:"size:16"`
	CodeExpiresAt int64  `json:"-"`
	LoginAttempts int    `json:"-"`
	BlockedUntil  int64  `json:"-"`
	LastLoginAt   int64  `json:"last_login_at"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
