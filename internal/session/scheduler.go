package session

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// The scheduler drives each session through
//
//	ACTIVE -> (expiry timer) -> recently active? -> GRACE -> (grace timer) -> revoked
//	                         -> idle             -> revoked
//
// Timer callbacks carry only the fingerprint, never a session pointer: a
// stale callback that lost a race with extend or revoke looks the state
// up again and no-ops.

func (m *Manager) armExpiryLocked(s *Session) {
	s.stopTimer()
	fingerprint := s.Fingerprint
	delay := time.Until(time.UnixMilli(s.ExpiresAt))
	s.timer = time.AfterFunc(delay, func() {
		m.handleExpiry(fingerprint)
	})
}

func (m *Manager) armGraceLocked(s *Session) {
	s.stopTimer()
	fingerprint := s.Fingerprint
	s.timer = time.AfterFunc(m.cfg.GracePeriod, func() {
		m.handleGrace(fingerprint)
	})
}

// handleExpiry fires at nominal expiry. A recently used session gets a
// grace window and a session-expiring notification; an idle one is
// revoked outright, with no notification, because nobody is watching.
func (m *Manager) handleExpiry(fingerprint string) {
	now := nowMilli()
	var pending []outbound

	m.mu.Lock()
	s, ok := m.reg.get(fingerprint)
	if !ok || s.state != stateActive || now < s.ExpiresAt {
		// Cancelled or rescheduled while this callback was in flight.
		m.mu.Unlock()
		return
	}
	idle := now - s.LastActivity
	if idle < m.cfg.ActivityThreshold.Milliseconds() {
		s.state = stateGrace
		m.armGraceLocked(s)
		pending = append(pending, outbound{
			fingerprint: fingerprint,
			event:       newExpiringEvent(s.Device, int64(m.cfg.GracePeriod.Seconds())),
		})
		m.mu.Unlock()
		m.flush(pending)
		log.Infof("session entered grace: %s - idle %dms", fingerprint, idle)
		return
	}
	m.removeLocked(fingerprint)
	m.channels.Remove(fingerprint)
	m.mu.Unlock()
	log.Infof("session expired while idle: %s - %s (%s)", s.Email, fingerprint, ReasonInactiveExpiry)
}

// handleGrace fires when the grace window closes with no extend.
func (m *Manager) handleGrace(fingerprint string) {
	var pending []outbound

	m.mu.Lock()
	s, ok := m.reg.get(fingerprint)
	if !ok || s.state != stateGrace {
		m.mu.Unlock()
		return
	}
	m.removeLocked(fingerprint)
	pending = append(pending, outbound{
		fingerprint: fingerprint,
		event:       newRevokedEvent(s.Device, ReasonGraceExceeded),
		drop:        true,
	})
	m.mu.Unlock()

	m.flush(pending)
	log.Infof("session revoked: %s - %s (%s)", s.Email, fingerprint, ReasonGraceExceeded)
}

// Run drives the periodic sweep until ctx is cancelled. The sweep is a
// safety net against lost timer callbacks: it removes any session whose
// grace window has also fully elapsed, without notifications.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.sweep(); n > 0 {
				log.Infof("swept %d stale sessions", n)
			}
		}
	}
}

func (m *Manager) sweep() int {
	now := nowMilli()
	grace := m.cfg.GracePeriod.Milliseconds()

	m.mu.Lock()
	var stale []string
	for fp, s := range m.reg.sessions {
		if now > s.ExpiresAt+grace {
			stale = append(stale, fp)
		}
	}
	for _, fp := range stale {
		m.removeLocked(fp)
		m.channels.Remove(fp)
	}
	m.mu.Unlock()
	return len(stale)
}
