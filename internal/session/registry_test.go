package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regSession(fp, userID string, issuedAt, lastActivity int64) *Session {
	return &Session{
		Fingerprint:  fp,
		UserID:       userID,
		IssuedAt:     issuedAt,
		LastActivity: lastActivity,
		state:        stateActive,
	}
}

func TestRegistryPutGetRemove(t *testing.T) {
	r := newRegistry()
	r.put(regSession("fp-a", "u1", 1, 1))

	s, ok := r.get("fp-a")
	require.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, 1, r.deviceCount("u1"))

	r.remove("fp-a")
	_, ok = r.get("fp-a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.deviceCount("u1"))

	// Removing an absent fingerprint is a no-op.
	r.remove("fp-a")
}

func TestRegistryUserIndexCleanup(t *testing.T) {
	r := newRegistry()
	r.put(regSession("fp-a", "u1", 1, 1))
	r.put(regSession("fp-b", "u1", 2, 2))

	r.remove("fp-a")
	assert.Equal(t, 1, r.deviceCount("u1"))
	r.remove("fp-b")

	_, ok := r.userDevices["u1"]
	assert.False(t, ok, "empty user entry must be dropped")
}

func TestRegistryDevicesForUserOrder(t *testing.T) {
	r := newRegistry()
	r.put(regSession("fp-a", "u1", 1, 30))
	r.put(regSession("fp-b", "u1", 2, 10))
	r.put(regSession("fp-c", "u1", 3, 20))
	r.put(regSession("fp-x", "u2", 4, 40))

	out := r.devicesForUser("u1")
	require.Len(t, out, 3)
	assert.Equal(t, "fp-a", out[0].Fingerprint)
	assert.Equal(t, "fp-c", out[1].Fingerprint)
	assert.Equal(t, "fp-b", out[2].Fingerprint)

	assert.Nil(t, r.devicesForUser("u3"))
}

func TestRegistryOldestForUser(t *testing.T) {
	r := newRegistry()
	_, ok := r.oldestForUser("u1")
	assert.False(t, ok)

	r.put(regSession("fp-a", "u1", 20, 99))
	r.put(regSession("fp-b", "u1", 10, 1))
	r.put(regSession("fp-c", "u1", 30, 50))

	// Oldest by login time, not by recency of use.
	fp, ok := r.oldestForUser("u1")
	require.True(t, ok)
	assert.Equal(t, "fp-b", fp)
}
