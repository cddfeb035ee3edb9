package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semonara/semonara/internal/device"
	"github.com/semonara/semonara/internal/errs"
)

var testSecret = []byte("unit-test-secret")

func TestIssueVerifyRoundtrip(t *testing.T) {
	info := device.Info{OS: "linux", Browser: "firefox", Type: "desktop"}
	signed, expiresAt, err := Issue(testSecret, "a@b.test", "u1", "fp-1", "10.0.0.1", info, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.Greater(t, expiresAt, time.Now().UnixMilli())

	claims, err := Verify(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "a@b.test", claims.Email)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "fp-1", claims.Fingerprint)
	assert.Equal(t, "10.0.0.1", claims.IP)
	assert.Equal(t, info, claims.Device)
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, _, err := Issue(testSecret, "a@b.test", "u1", "fp-1", "", device.Info{}, time.Hour)
	require.NoError(t, err)

	_, err = Verify(signed, []byte("other-secret"))
	assert.ErrorIs(t, err, errs.InvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := Verify(tok, testSecret)
		assert.ErrorIs(t, err, errs.InvalidToken)
	}
}

func TestVerifyExpired(t *testing.T) {
	signed, _, err := Issue(testSecret, "a@b.test", "u1", "fp-1", "", device.Info{}, -time.Minute)
	require.NoError(t, err)

	_, err = Verify(signed, testSecret)
	assert.ErrorIs(t, err, errs.InvalidToken)
}

func TestDecodeAcceptsExpired(t *testing.T) {
	signed, _, err := Issue(testSecret, "a@b.test", "u1", "fp-1", "", device.Info{}, -time.Minute)
	require.NoError(t, err)

	claims, err := Decode(signed, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "fp-1", claims.Fingerprint)
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	signed, _, err := Issue(testSecret, "a@b.test", "u1", "fp-1", "", device.Info{}, time.Hour)
	require.NoError(t, err)

	_, err = Decode(signed, []byte("other-secret"))
	assert.ErrorIs(t, err, errs.InvalidToken)
}
