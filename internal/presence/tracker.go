// Package presence tracks live client connections by network address.
// It mirrors session activity on a best-effort basis and is never
// authoritative: session state lives in the session manager.
package presence

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Connection is the tracked state of one client address.
type Connection struct {
	UserID          string `json:"user_id,omitempty"`
	UserAgent       string `json:"user_agent"`
	Authenticated   bool   `json:"authenticated"`
	LastHeartbeat   int64  `json:"last_heartbeat"`
	ConnectionStart int64  `json:"connection_start"`
	TotalRequests   int64  `json:"total_requests"`
}

// Stats is a snapshot of the tracker.
type Stats struct {
	TotalConnections  int   `json:"total_connections"`
	Authenticated     int   `json:"authenticated"`
	Anonymous         int   `json:"anonymous"`
	ActiveConnections int   `json:"active_connections"`
	TimeoutSeconds    int64 `json:"timeout_seconds"`
}

// Tracker keeps one record per client address and expires records that
// stop heartbeating.
type Tracker struct {
	mu      sync.Mutex
	conns   map[string]*Connection
	timeout time.Duration
}

func NewTracker(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Tracker{
		conns:   make(map[string]*Connection),
		timeout: timeout,
	}
}

// Touch records activity from an authenticated user at addr.
func (t *Tracker) Touch(addr, userID, userAgent string) {
	now := time.Now().UnixMilli()
	t.mu.Lock()
	c, ok := t.conns[addr]
	if !ok {
		c = &Connection{ConnectionStart: now}
		t.conns[addr] = c
		log.Debugf("new connection: %s (%s)", userID, addr)
	}
	c.UserID = userID
	c.UserAgent = userAgent
	c.Authenticated = true
	c.LastHeartbeat = now
	c.TotalRequests++
	t.mu.Unlock()
}

// TouchAnonymous records activity from an unauthenticated client. It
// never downgrades an authenticated record.
func (t *Tracker) TouchAnonymous(addr, userAgent string) {
	now := time.Now().UnixMilli()
	t.mu.Lock()
	c, ok := t.conns[addr]
	if !ok {
		t.conns[addr] = &Connection{
			UserAgent:       userAgent,
			ConnectionStart: now,
			LastHeartbeat:   now,
			TotalRequests:   1,
		}
		t.mu.Unlock()
		return
	}
	if !c.Authenticated {
		c.LastHeartbeat = now
		c.UserAgent = userAgent
		c.TotalRequests++
	}
	t.mu.Unlock()
}

// IsConnected reports whether addr heartbeated within the timeout.
func (t *Tracker) IsConnected(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.conns[addr]
	if !ok {
		return false
	}
	return time.Now().UnixMilli()-c.LastHeartbeat < t.timeout.Milliseconds()
}

// IsUserConnected reports whether any live connection belongs to userID.
func (t *Tracker) IsUserConnected(userID string) bool {
	now := time.Now().UnixMilli()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.conns {
		if c.UserID == userID && now-c.LastHeartbeat < t.timeout.Milliseconds() {
			return true
		}
	}
	return false
}

func (t *Tracker) Stats() Stats {
	now := time.Now().UnixMilli()
	st := Stats{TimeoutSeconds: int64(t.timeout.Seconds())}
	t.mu.Lock()
	for _, c := range t.conns {
		st.TotalConnections++
		if c.Authenticated {
			st.Authenticated++
		} else {
			st.Anonymous++
		}
		if now-c.LastHeartbeat < t.timeout.Milliseconds() {
			st.ActiveConnections++
		}
	}
	t.mu.Unlock()
	return st
}

// Run expires silent connections until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	interval := t.timeout / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.cleanup(); n > 0 {
				log.Debugf("pruned %d inactive connections", n)
			}
		}
	}
}

func (t *Tracker) cleanup() int {
	now := time.Now().UnixMilli()
	t.mu.Lock()
	removed := 0
	for addr, c := range t.conns {
		if now-c.LastHeartbeat > t.timeout.Milliseconds() {
			delete(t.conns, addr)
			removed++
		}
	}
	t.mu.Unlock()
	return removed
}
