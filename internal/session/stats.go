package session

import "time"

// expiringSoonHorizon is the window counted as "expiring soon" in stats.
const expiringSoonHorizon = 5 * time.Minute

// Stats is a point-in-time snapshot of the session core.
type Stats struct {
	TotalSessions     int            `json:"total_sessions"`
	TotalUsers        int            `json:"total_users"`
	MaxDevices        int            `json:"max_devices"`
	Channels          int            `json:"channels"`
	ExpiringSoon      int            `json:"expiring_soon"`
	RecentlyActive    int            `json:"recently_active"`
	TokenTTL          int64          `json:"token_ttl_seconds"`
	GracePeriod       int64          `json:"grace_period_seconds"`
	ActivityThreshold int64          `json:"activity_threshold_seconds"`
	ByDeviceType      map[string]int `json:"by_device_type"`
	ByOS              map[string]int `json:"by_os"`
	ByBrowser         map[string]int `json:"by_browser"`
}

func (m *Manager) Stats() Stats {
	now := nowMilli()
	st := Stats{
		MaxDevices:        m.cfg.MaxDevices,
		TokenTTL:          int64(m.cfg.TokenTTL.Seconds()),
		GracePeriod:       int64(m.cfg.GracePeriod.Seconds()),
		ActivityThreshold: int64(m.cfg.ActivityThreshold.Seconds()),
		ByDeviceType:      make(map[string]int),
		ByOS:              make(map[string]int),
		ByBrowser:         make(map[string]int),
	}

	m.mu.Lock()
	st.TotalSessions = len(m.reg.sessions)
	st.TotalUsers = len(m.reg.userDevices)
	for _, s := range m.reg.sessions {
		if s.ExpiresAt-now < expiringSoonHorizon.Milliseconds() {
			st.ExpiringSoon++
		}
		if now-s.LastActivity < m.cfg.ActivityThreshold.Milliseconds() {
			st.RecentlyActive++
		}
		st.ByDeviceType[s.Device.Type]++
		st.ByOS[s.Device.OS]++
		st.ByBrowser[s.Device.Browser]++
	}
	m.mu.Unlock()

	st.Channels = m.channels.Len()
	return st
}
