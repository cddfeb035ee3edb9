package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/semonara/semonara/internal/presence"
)

// Track records connection presence after each request completes.
// Authenticated requests were already mirrored by the auth middleware;
// everything else counts as anonymous traffic.
func Track(tracker *presence.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if _, ok := c.Get("claims"); ok {
			return
		}
		tracker.TouchAnonymous(c.ClientIP(), c.Request.UserAgent())
	}
}
