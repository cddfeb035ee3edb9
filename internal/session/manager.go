package session

import (
	"sync"
	"time"

	"github.com/semonara/semonara/internal/device"
	"github.com/semonara/semonara/internal/errs"
	"github.com/semonara/semonara/internal/token"
	"github.com/semonara/semonara/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// Revocation reasons, logged and carried in session-revoked events.
const (
	ReasonRelogin        = "same device re-login"
	ReasonDeviceLimit    = "max concurrent devices exceeded"
	ReasonUserLogout     = "user logout"
	ReasonLogoutAll      = "logout of all devices"
	ReasonForcedLogout   = "forced logout from another device"
	ReasonExpired        = "token expired"
	ReasonInactiveExpiry = "inactive automatic expiry"
	ReasonGraceExceeded  = "grace period exceeded"
	ReasonSweep          = "periodic cleanup"
)

// Config carries the session core tunables.
type Config struct {
	Secret            []byte
	TokenTTL          time.Duration
	GracePeriod       time.Duration
	ActivityThreshold time.Duration
	SweepInterval     time.Duration
	MaxDevices        int
}

func (c *Config) applyDefaults() {
	if c.TokenTTL <= 0 {
		c.TokenTTL = 30 * time.Minute
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 5 * time.Minute
	}
	if c.ActivityThreshold <= 0 {
		c.ActivityThreshold = 2 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 10 * time.Minute
	}
	if c.MaxDevices <= 0 {
		c.MaxDevices = 3
	}
}

// Manager composes the registry, the expiry scheduler and the channel
// registry behind the public session operations. A single mutex guards
// every registry mutation; notification delivery always happens after
// the lock is released so a slow sink can never stall a mutation.
type Manager struct {
	cfg      Config
	mu       sync.Mutex
	reg      *registry
	channels *channelRegistry
}

// New creates a Manager. Zero config fields fall back to the reference
// defaults (30m TTL, 5m grace, 2m activity threshold, 3 devices).
func New(cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:      cfg,
		reg:      newRegistry(),
		channels: newChannelRegistry(),
	}
}

// Cfg returns the effective configuration.
func (m *Manager) Cfg() Config {
	return m.cfg
}

// outbound is a notification decided inside the critical section but
// delivered after it. drop removes the device's channel once the event
// is out, so a revoked device still receives its final event.
type outbound struct {
	fingerprint string
	event       Event
	drop        bool
}

func (m *Manager) flush(pending []outbound) {
	for _, o := range pending {
		m.channels.Send(o.fingerprint, o.event)
		if o.drop {
			m.channels.Remove(o.fingerprint)
		}
	}
}

// IssueResult is what a successful login hands back to the client.
type IssueResult struct {
	Token       string      `json:"token"`
	Fingerprint string      `json:"fingerprint"`
	Device      device.Info `json:"device"`
	IP          string      `json:"ip"`
	ExpiresAt   int64       `json:"expires_at"`
	TTL         int64       `json:"ttl_seconds"`
}

// Issue identifies the connecting device and creates its session. A
// session already bound to the same fingerprint is silently superseded;
// a user at the device cap loses the oldest-issued session, and that
// device is notified of the forced revocation.
func (m *Manager) Issue(email, userID string, conn device.ConnContext) (*IssueResult, error) {
	fingerprint := device.Identify(conn)
	info := device.Parse(conn.UserAgent)
	return m.issueAs(email, userID, fingerprint, info, utils.MaskIP(conn.IP), conn.UserAgent)
}

// issueAs is Issue with the device identity already derived.
func (m *Manager) issueAs(email, userID, fingerprint string, info device.Info, ip, userAgent string) (*IssueResult, error) {
	signed, expiresAt, err := token.Issue(m.cfg.Secret, email, userID, fingerprint, ip, info, m.cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	now := nowMilli()
	var pending []outbound

	m.mu.Lock()
	// A fresh handshake always supersedes a stale session bound to the
	// same derived fingerprint.
	if _, ok := m.reg.get(fingerprint); ok {
		m.removeLocked(fingerprint)
		log.Debugf("superseded session on re-login: %s", fingerprint)
	}
	if m.reg.deviceCount(userID) >= m.cfg.MaxDevices {
		if oldest, ok := m.reg.oldestForUser(userID); ok {
			evicted, _ := m.reg.get(oldest)
			m.removeLocked(oldest)
			pending = append(pending, outbound{
				fingerprint: oldest,
				event:       newRevokedEvent(evicted.Device, ReasonDeviceLimit),
				drop:        true,
			})
			log.Infof("device limit reached for user %s, evicted oldest session %s", userID, oldest)
		}
	}
	s := &Session{
		Fingerprint:  fingerprint,
		UserID:       userID,
		Email:        email,
		Token:        signed,
		IP:           ip,
		UserAgent:    userAgent,
		Device:       info,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
		LastActivity: now,
		state:        stateActive,
	}
	m.reg.put(s)
	m.armExpiryLocked(s)
	m.mu.Unlock()

	m.flush(pending)
	log.Infof("session issued: %s - %s/%s/%s - %s", email, info.Type, info.OS, info.Browser, fingerprint)

	return &IssueResult{
		Token:       signed,
		Fingerprint: fingerprint,
		Device:      info,
		IP:          ip,
		ExpiresAt:   expiresAt,
		TTL:         int64(m.cfg.TokenTTL.Seconds()),
	}, nil
}

// Verify checks a presented token against the codec and the registry.
// Every failure comes back as errs.InvalidToken; sub-reasons are only
// logged. A successful verify touches the activity timestamp.
func (m *Manager) Verify(tokenStr string) (*token.Claims, error) {
	claims, err := token.Verify(tokenStr, m.cfg.Secret)
	if err != nil {
		return nil, errs.InvalidToken
	}

	now := nowMilli()
	var pending []outbound

	m.mu.Lock()
	s, ok := m.reg.get(claims.Fingerprint)
	if !ok || s.Token != tokenStr {
		m.mu.Unlock()
		log.Debugf("verify failed: no matching session for %s", claims.Fingerprint)
		return nil, errs.InvalidToken
	}
	if now > s.ExpiresAt {
		m.removeLocked(claims.Fingerprint)
		pending = append(pending, outbound{
			fingerprint: claims.Fingerprint,
			event:       newRevokedEvent(s.Device, ReasonExpired),
			drop:        true,
		})
		m.mu.Unlock()
		m.flush(pending)
		log.Debugf("verify failed: session expired for %s", claims.Fingerprint)
		return nil, errs.InvalidToken
	}
	s.LastActivity = now
	m.mu.Unlock()
	return claims, nil
}

// TouchActivity updates the session's activity timestamp. It never
// extends the session: expiry stays calendar-based and recency only
// feeds the grace decision at expiry time.
func (m *Manager) TouchActivity(tokenStr, ip string) {
	claims, err := token.Decode(tokenStr, m.cfg.Secret)
	if err != nil {
		return
	}
	m.mu.Lock()
	if s, ok := m.reg.get(claims.Fingerprint); ok {
		s.LastActivity = nowMilli()
		if ip != "" {
			s.IP = utils.MaskIP(ip)
		}
	}
	m.mu.Unlock()
}

// Extend replaces the session's token with a fresh one carrying a full
// TTL and returns the session to the active state. It accepts a token
// whose expiry claim has passed, because extension is exactly what the
// grace window is for; the registry equality check remains the gate.
func (m *Manager) Extend(tokenStr string) (*IssueResult, error) {
	claims, err := token.Decode(tokenStr, m.cfg.Secret)
	if err != nil {
		return nil, errs.InvalidToken
	}

	var pending []outbound

	m.mu.Lock()
	s, ok := m.reg.get(claims.Fingerprint)
	if !ok || s.Token != tokenStr {
		m.mu.Unlock()
		log.Debugf("extend failed: no matching session for %s", claims.Fingerprint)
		return nil, errs.SessionNotFound
	}

	signed, expiresAt, err := token.Issue(m.cfg.Secret, s.Email, s.UserID, s.Fingerprint, s.IP, s.Device, m.cfg.TokenTTL)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	now := nowMilli()
	s.stopTimer()
	s.Token = signed
	s.IssuedAt = now
	s.ExpiresAt = expiresAt
	s.LastActivity = now
	s.state = stateActive
	m.armExpiryLocked(s)

	pending = append(pending, outbound{
		fingerprint: s.Fingerprint,
		event:       newExtendedEvent(s.Device, signed),
	})
	result := &IssueResult{
		Token:       signed,
		Fingerprint: s.Fingerprint,
		Device:      s.Device,
		IP:          s.IP,
		ExpiresAt:   expiresAt,
		TTL:         int64(m.cfg.TokenTTL.Seconds()),
	}
	m.mu.Unlock()

	m.flush(pending)
	log.Infof("session extended: %s - %s", result.Fingerprint, claims.Email)
	return result, nil
}

// Revoke removes the session bound to the presented token.
func (m *Manager) Revoke(tokenStr, reason string) {
	claims, err := token.Decode(tokenStr, m.cfg.Secret)
	if err != nil {
		return
	}
	m.RevokeDevice(claims.Fingerprint, reason, true)
}

// RevokeDevice removes one device's session. The device is notified of
// the revocation unless notify is false.
func (m *Manager) RevokeDevice(fingerprint, reason string, notify bool) {
	var pending []outbound

	m.mu.Lock()
	s, ok := m.reg.get(fingerprint)
	if !ok {
		m.mu.Unlock()
		return
	}
	m.removeLocked(fingerprint)
	if notify {
		pending = append(pending, outbound{
			fingerprint: fingerprint,
			event:       newRevokedEvent(s.Device, reason),
			drop:        true,
		})
	} else {
		m.channels.Remove(fingerprint)
	}
	m.mu.Unlock()

	m.flush(pending)
	log.Infof("session revoked: %s - %s (%s) - %s", s.Email, s.Device.Type, s.Device.OS, reason)
}

// RevokeAllForUser removes every session of the user except the given
// fingerprint. Individual notifications are suppressed on purpose: bulk
// logout of many devices must not turn into a notification storm.
func (m *Manager) RevokeAllForUser(userID, exceptFingerprint string) int {
	m.mu.Lock()
	revoked := 0
	for _, s := range m.reg.devicesForUser(userID) {
		if s.Fingerprint == exceptFingerprint {
			continue
		}
		m.removeLocked(s.Fingerprint)
		m.channels.Remove(s.Fingerprint)
		revoked++
	}
	m.mu.Unlock()

	log.Infof("revoked all sessions for user %s: %d devices", userID, revoked)
	return revoked
}

// Device returns the summary of one live session.
func (m *Manager) Device(fingerprint string) (DeviceSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.reg.get(fingerprint); ok {
		return s.summary(), true
	}
	return DeviceSummary{}, false
}

// ActiveDevices lists the user's live sessions, most recently active
// first.
func (m *Manager) ActiveDevices(userID string) []DeviceSummary {
	m.mu.Lock()
	sessions := m.reg.devicesForUser(userID)
	out := make([]DeviceSummary, len(sessions))
	for i, s := range sessions {
		out[i] = s.summary()
	}
	m.mu.Unlock()
	return out
}

// RegisterChannel binds a push sink to the device encoded in the token.
// The caller owns the transport; the manager only ever writes events.
func (m *Manager) RegisterChannel(tokenStr string, sink Sink) (device.Info, error) {
	claims, err := token.Decode(tokenStr, m.cfg.Secret)
	if err != nil {
		return device.Info{}, errs.InvalidToken
	}
	m.mu.Lock()
	s, ok := m.reg.get(claims.Fingerprint)
	if !ok || s.Token != tokenStr {
		m.mu.Unlock()
		return device.Info{}, errs.SessionNotFound
	}
	info := s.Device
	m.mu.Unlock()

	m.channels.Register(claims.Fingerprint, sink)
	return info, nil
}

// removeLocked strips a session out of the registry and cancels its
// pending timer. Channel removal is the caller's business, so a final
// notification can still reach the device first.
func (m *Manager) removeLocked(fingerprint string) {
	if s, ok := m.reg.get(fingerprint); ok {
		s.stopTimer()
		m.reg.remove(fingerprint)
	}
}
