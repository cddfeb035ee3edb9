package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/semonara/semonara/internal/conf"
	"github.com/semonara/semonara/internal/mailer"
	"github.com/semonara/semonara/internal/presence"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/server/common"
	"github.com/semonara/semonara/server/handles"
	"github.com/semonara/semonara/server/middlewares"
)

// Init wires routes onto the engine. The session manager, tracker and
// mailer are owned by the caller and passed down by reference.
func Init(e *gin.Engine, mgr *session.Manager, tracker *presence.Tracker, sender mailer.Sender) {
	if conf.Conf.Cors {
		e.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Device-Fingerprint", "X-Session-Id"},
			MaxAge:          12 * time.Hour,
		}))
	}
	e.Use(middlewares.Track(tracker))

	h := &handles.AuthAPI{Mgr: mgr, Tracker: tracker, Mailer: sender}

	e.GET("/health", func(c *gin.Context) {
		common.SuccessResp(c, gin.H{
			"status":    "ok",
			"version":   conf.Version,
			"timestamp": time.Now().UnixMilli(),
		})
	})

	auth := e.Group("/api/auth")
	auth.POST("/request-code", h.RequestCode)
	auth.POST("/verify-code", h.VerifyCode)
	auth.GET("/status", h.Status)
	auth.POST("/extend", h.Extend)
	auth.GET("/heartbeat", h.Heartbeat)
	auth.GET("/events", h.Events)

	protected := auth.Group("", middlewares.Auth(mgr, tracker))
	protected.POST("/logout", h.Logout)
	protected.GET("/profile", h.Profile)
	protected.GET("/devices", h.MyDevices)
	protected.POST("/devices/evict", h.EvictDevice)
	protected.GET("/stats", h.Stats)
}
