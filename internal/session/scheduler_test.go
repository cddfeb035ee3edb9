package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semonara/semonara/internal/device"
)

func schedulerManager(t *testing.T, ttl, grace, threshold time.Duration) *Manager {
	t.Helper()
	return New(Config{
		Secret:            []byte("test-secret"),
		TokenTTL:          ttl,
		GracePeriod:       grace,
		ActivityThreshold: threshold,
		SweepInterval:     time.Hour,
		MaxDevices:        3,
	})
}

func schedulerIssue(t *testing.T, m *Manager, fp string) (*IssueResult, *fakeSink) {
	t.Helper()
	res, err := m.issueAs("u1@example.test", "u1", fp,
		device.Info{OS: "linux", Browser: "firefox", Type: "desktop"},
		"10.0.0.1", "test-agent")
	require.NoError(t, err)
	sink := &fakeSink{}
	_, err = m.RegisterChannel(res.Token, sink)
	require.NoError(t, err)
	return res, sink
}

func TestRecentlyActiveSessionGetsGrace(t *testing.T) {
	// Activity threshold well above the TTL, so the session is always
	// "recently active" when the expiry timer fires.
	m := schedulerManager(t, 100*time.Millisecond, 300*time.Millisecond, time.Minute)
	_, sink := schedulerIssue(t, m, "fp-a")

	require.Eventually(t, func() bool {
		return len(sink.byType(EventExpiring)) == 1
	}, 2*time.Second, 5*time.Millisecond, "expected a session-expiring event at nominal expiry")

	// Inside the grace window the session is still resident.
	_, ok := m.Device("fp-a")
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		return len(sink.byType(EventRevoked)) == 1
	}, 2*time.Second, 5*time.Millisecond, "expected revocation once grace elapsed")
	assert.Equal(t, ReasonGraceExceeded, sink.byType(EventRevoked)[0].Reason)

	_, ok = m.Device("fp-a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.channels.Len())
}

func TestIdleSessionExpiresSilently(t *testing.T) {
	// Threshold below the TTL and no activity after issue, so the
	// session counts as idle at expiry and is dropped without events.
	m := schedulerManager(t, 150*time.Millisecond, time.Minute, 50*time.Millisecond)
	_, sink := schedulerIssue(t, m, "fp-a")

	require.Eventually(t, func() bool {
		_, ok := m.Device("fp-a")
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	assert.Empty(t, sink.list())
	assert.Equal(t, 0, m.channels.Len())
}

func TestExtendDuringGraceKeepsSession(t *testing.T) {
	m := schedulerManager(t, 100*time.Millisecond, 400*time.Millisecond, time.Minute)
	res, sink := schedulerIssue(t, m, "fp-a")

	require.Eventually(t, func() bool {
		return len(sink.byType(EventExpiring)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	extended, err := m.Extend(res.Token)
	require.NoError(t, err)
	assert.NotEqual(t, res.Token, extended.Token)

	// A grace callback that lost the race with the extension must
	// no-op: the session is active again.
	m.handleGrace("fp-a")

	summary, ok := m.Device("fp-a")
	require.True(t, ok)
	assert.Empty(t, sink.byType(EventRevoked))
	assert.Equal(t, extended.ExpiresAt, summary.ExpiresAt)
	require.Len(t, sink.byType(EventExtended), 1)
}

func TestSweepRemovesStaleSessions(t *testing.T) {
	m := testManager(t)
	res := issue(t, m, "u1", "fp-a")
	issue(t, m, "u1", "fp-b")

	sink := &fakeSink{}
	_, err := m.RegisterChannel(res.Token, sink)
	require.NoError(t, err)

	// Simulate a session whose timer callback was lost: expired past
	// the whole grace window but still resident.
	m.mu.Lock()
	s, ok := m.reg.get("fp-a")
	require.True(t, ok)
	s.stopTimer()
	s.ExpiresAt = nowMilli() - m.cfg.GracePeriod.Milliseconds() - 10
	m.mu.Unlock()

	assert.Equal(t, 1, m.sweep())

	_, ok = m.Device("fp-a")
	assert.False(t, ok)
	_, ok = m.Device("fp-b")
	assert.True(t, ok)
	assert.Empty(t, sink.list(), "sweep removal is silent")
	assert.Equal(t, 0, m.channels.Len())
}
