package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/semonara/semonara/internal/presence"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/server/common"
)

// Auth verifies the session token on every protected request and stores
// the claims for downstream handlers. Verification itself touches the
// session's activity timestamp; presence is mirrored best-effort.
func Auth(mgr *session.Manager, tracker *presence.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := common.GetToken(c)
		if tokenStr == "" {
			common.ErrorStrResp(c, "token required", 401)
			return
		}
		claims, err := mgr.Verify(tokenStr)
		if err != nil {
			common.ErrorStrResp(c, "invalid token", 403)
			return
		}
		tracker.Touch(c.ClientIP(), claims.UserID, c.Request.UserAgent())
		c.Set("claims", claims)
		c.Set("token", tokenStr)
		c.Next()
	}
}
