package common

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctxFor(t *testing.T, target string, header map[string]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	for k, v := range header {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestGetToken(t *testing.T) {
	c := ctxFor(t, "/api/auth/status", map[string]string{"Authorization": "Bearer abc.def.ghi"})
	assert.Equal(t, "abc.def.ghi", GetToken(c))

	c = ctxFor(t, "/api/auth/events?token=qrs.tuv", nil)
	assert.Equal(t, "qrs.tuv", GetToken(c))

	c = ctxFor(t, "/api/auth/status", map[string]string{"Authorization": "Basic dXNlcg=="})
	assert.Equal(t, "", GetToken(c))

	c = ctxFor(t, "/api/auth/status", nil)
	assert.Equal(t, "", GetToken(c))
}
