package handles

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/semonara/semonara/internal/errs"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/internal/token"
	"github.com/semonara/semonara/server/common"
	log "github.com/sirupsen/logrus"
)

// MyDevices lists every active session of the calling user.
func (h *AuthAPI) MyDevices(c *gin.Context) {
	claims := c.MustGet("claims").(*token.Claims)
	devices := h.Mgr.ActiveDevices(claims.UserID)
	common.SuccessResp(c, gin.H{
		"devices":        devices,
		"current_device": claims.Fingerprint,
		"max_devices":    h.Mgr.Cfg().MaxDevices,
		"total_devices":  len(devices),
	})
}

type evictDeviceReq struct {
	Fingerprint string `json:"fingerprint" binding:"required"`
}

// EvictDevice force-logs-out another device of the calling user. The
// current device cannot evict itself; that is what logout is for.
func (h *AuthAPI) EvictDevice(c *gin.Context) {
	var req evictDeviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	claims := c.MustGet("claims").(*token.Claims)
	if req.Fingerprint == claims.Fingerprint {
		common.ErrorStrResp(c, "cannot evict the current device", 400)
		return
	}
	target, ok := h.Mgr.Device(req.Fingerprint)
	if !ok || !ownedBy(h.Mgr, claims.UserID, req.Fingerprint) {
		common.ErrorResp(c, errs.DeviceNotFound, 404)
		return
	}
	h.Mgr.RevokeDevice(req.Fingerprint, session.ReasonForcedLogout, true)
	log.Infof("device force-logged-out by user %s: %s", claims.UserID, req.Fingerprint)
	common.SuccessResp(c, gin.H{"logged_out_device": target.Device})
}

// Stats exposes session-core and presence counters.
func (h *AuthAPI) Stats(c *gin.Context) {
	common.SuccessResp(c, gin.H{
		"timestamp":   time.Now().UnixMilli(),
		"sessions":    h.Mgr.Stats(),
		"connections": h.Tracker.Stats(),
	})
}

func ownedBy(mgr *session.Manager, userID, fingerprint string) bool {
	for _, d := range mgr.ActiveDevices(userID) {
		if d.Fingerprint == fingerprint {
			return true
		}
	}
	return false
}
