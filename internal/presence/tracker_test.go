package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchAndIsConnected(t *testing.T) {
	tr := NewTracker(time.Second)
	assert.False(t, tr.IsConnected("10.0.0.1"))

	tr.Touch("10.0.0.1", "u1", "agent")
	assert.True(t, tr.IsConnected("10.0.0.1"))
	assert.True(t, tr.IsUserConnected("u1"))
	assert.False(t, tr.IsUserConnected("u2"))
}

func TestTouchAnonymousNeverDowngrades(t *testing.T) {
	tr := NewTracker(time.Second)
	tr.Touch("10.0.0.1", "u1", "agent")
	tr.TouchAnonymous("10.0.0.1", "other-agent")

	st := tr.Stats()
	assert.Equal(t, 1, st.TotalConnections)
	assert.Equal(t, 1, st.Authenticated)
	assert.Equal(t, 0, st.Anonymous)
	assert.True(t, tr.IsUserConnected("u1"))
}

func TestAnonymousUpgrade(t *testing.T) {
	tr := NewTracker(time.Second)
	tr.TouchAnonymous("10.0.0.1", "agent")
	require.Equal(t, 1, tr.Stats().Anonymous)

	tr.Touch("10.0.0.1", "u1", "agent")
	st := tr.Stats()
	assert.Equal(t, 1, st.Authenticated)
	assert.Equal(t, 0, st.Anonymous)
}

func TestConnectionTimesOut(t *testing.T) {
	tr := NewTracker(30 * time.Millisecond)
	tr.Touch("10.0.0.1", "u1", "agent")

	require.Eventually(t, func() bool {
		return !tr.IsConnected("10.0.0.1")
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, tr.IsUserConnected("u1"))

	// Stale but uncollected records still count in totals until pruned.
	assert.Equal(t, 1, tr.Stats().TotalConnections)
	assert.Equal(t, 0, tr.Stats().ActiveConnections)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, tr.cleanup())
	assert.Equal(t, 0, tr.Stats().TotalConnections)
}

func TestStatsCounts(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.Touch("10.0.0.1", "u1", "agent")
	tr.Touch("10.0.0.2", "u2", "agent")
	tr.TouchAnonymous("10.0.0.3", "agent")

	st := tr.Stats()
	assert.Equal(t, 3, st.TotalConnections)
	assert.Equal(t, 2, st.Authenticated)
	assert.Equal(t, 1, st.Anonymous)
	assert.Equal(t, 3, st.ActiveConnections)
	assert.Equal(t, int64(60), st.TimeoutSeconds)
}
