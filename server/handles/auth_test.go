package handles

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semonara/semonara/internal/device"
	"github.com/semonara/semonara/internal/presence"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/server/common"
)

func testAPI(t *testing.T) *AuthAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &AuthAPI{
		Mgr: session.New(session.Config{
			Secret:   []byte("test-secret"),
			TokenTTL: time.Minute,
		}),
		Tracker: presence.NewTracker(time.Minute),
	}
}

func doRequest(t *testing.T, handler gin.HandlerFunc, target, bearer string) map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", target, nil)
	if bearer != "" {
		c.Request.Header.Set("Authorization", "Bearer "+bearer)
	}
	handler(c)
	require.Equal(t, 200, w.Code)

	var resp common.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 200, resp.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestHeartbeatReportsConnection(t *testing.T) {
	h := testAPI(t)
	res, err := h.Mgr.Issue("a@b.test", "u1", device.ConnContext{
		IP:        "192.0.2.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	data := doRequest(t, h.Heartbeat, "/api/auth/heartbeat", res.Token)
	assert.Equal(t, "u1", data["user_id"])

	conn, ok := data["connection"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, conn["is_connected"])
	assert.NotEmpty(t, conn["ip"])
	assert.NotZero(t, conn["last_activity"])

	assert.True(t, h.Tracker.IsUserConnected("u1"))
}

func TestStatusReportsUserOnline(t *testing.T) {
	h := testAPI(t)
	res, err := h.Mgr.Issue("a@b.test", "u1", device.ConnContext{
		IP:        "192.0.2.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	data := doRequest(t, h.Status, "/api/auth/status", res.Token)
	require.Equal(t, true, data["authenticated"])
	assert.Equal(t, false, data["user_online"], "no heartbeat yet")

	doRequest(t, h.Heartbeat, "/api/auth/heartbeat", res.Token)
	data = doRequest(t, h.Status, "/api/auth/status", res.Token)
	assert.Equal(t, true, data["user_online"])
}
