// Package session implements the device-scoped session core: an
// in-memory registry of live sessions keyed by device fingerprint, a
// per-session expiry state machine with an activity-gated grace period,
// and best-effort push notification of lifecycle events.
package session

import (
	"time"

	"github.com/semonara/semonara/internal/device"
)

const (
	stateActive = iota
	stateGrace
)

// Session is the authoritative record binding a token to a user and a
// device for a bounded time window. All instants are milliseconds since
// epoch. The timer field is owned by the scheduler and, like every other
// mutable field, is only touched under the manager's lock.
type Session struct {
	Fingerprint  string
	UserID       string
	Email        string
	Token        string
	IP           string
	UserAgent    string
	Device       device.Info
	IssuedAt     int64
	ExpiresAt    int64
	LastActivity int64

	state int
	timer *time.Timer
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// DeviceSummary is the externally visible view of one active device.
type DeviceSummary struct {
	Fingerprint  string      `json:"fingerprint"`
	Device       device.Info `json:"device"`
	IP           string      `json:"ip"`
	UserAgent    string      `json:"user_agent"`
	IssuedAt     int64       `json:"issued_at"`
	ExpiresAt    int64       `json:"expires_at"`
	LastActivity int64       `json:"last_activity"`
}

func (s *Session) summary() DeviceSummary {
	return DeviceSummary{
		Fingerprint:  s.Fingerprint,
		Device:       s.Device,
		IP:           s.IP,
		UserAgent:    s.UserAgent,
		IssuedAt:     s.IssuedAt,
		ExpiresAt:    s.ExpiresAt,
		LastActivity: s.LastActivity,
	}
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}
