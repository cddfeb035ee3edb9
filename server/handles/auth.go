package handles

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/semonara/semonara/internal/conf"
	"github.com/semonara/semonara/internal/db"
	"github.com/semonara/semonara/internal/device"
	"github.com/semonara/semonara/internal/errs"
	"github.com/semonara/semonara/internal/mailer"
	"github.com/semonara/semonara/internal/presence"
	"github.com/semonara/semonara/internal/session"
	"github.com/semonara/semonara/internal/token"
	"github.com/semonara/semonara/pkg/utils"
	"github.com/semonara/semonara/server/common"
	log "github.com/sirupsen/logrus"
)

const (
	codeValidity = 5 * time.Minute
	maxAttempts  = 5
	blockWindow  = 30 * time.Minute
)

// AuthAPI wires the one-time-code login flow to the session core.
type AuthAPI struct {
	Mgr     *session.Manager
	Tracker *presence.Tracker
	Mailer  mailer.Sender
}

type requestCodeReq struct {
	Email string `json:"email" binding:"required"`
}

func (h *AuthAPI) RequestCode(c *gin.Context) {
	var req requestCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if !authorizedEmail(req.Email) {
		common.ErrorResp(c, errs.EmailNotAuthorized, 403)
		return
	}
	now := time.Now().UnixMilli()
	blocked, err := db.IsUserBlocked(req.Email, now)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	if blocked {
		common.ErrorResp(c, errs.UserBlocked, 429)
		return
	}
	code := generateCode()
	if err := db.SetAuthCode(req.Email, code, now+codeValidity.Milliseconds()); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	if err := h.Mailer.SendCode(req.Email, code); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

type verifyCodeReq struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *AuthAPI) VerifyCode(c *gin.Context) {
	var req verifyCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if !authorizedEmail(req.Email) {
		common.ErrorResp(c, errs.EmailNotAuthorized, 403)
		return
	}
	now := time.Now().UnixMilli()

	if u, err := db.GetUserByEmail(req.Email); err == nil && u.LoginAttempts >= maxAttempts {
		_ = db.BlockUser(req.Email, now+blockWindow.Milliseconds())
		common.ErrorResp(c, errs.TooManyAttempts, 429)
		return
	}

	user, err := db.VerifyAuthCode(req.Email, req.Code, now)
	if err != nil {
		_ = db.IncrementLoginAttempts(req.Email)
		common.ErrorResp(c, errs.CodeMismatch, 400)
		return
	}

	result, err := h.Mgr.Issue(req.Email, fmt.Sprint(user.ID), connContext(c))
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	if err := db.TouchLastLogin(req.Email, now); err != nil {
		log.Warnf("failed to record last login for %s: %+v", req.Email, err)
	}

	cfg := h.Mgr.Cfg()
	common.SuccessResp(c, gin.H{
		"token":  result.Token,
		"device": deviceResp(result.Fingerprint, result.Device, result.IP),
		"token_info": gin.H{
			"ttl_seconds":          result.TTL,
			"expires_at":           result.ExpiresAt,
			"grace_period_seconds": int64(cfg.GracePeriod.Seconds()),
			"max_devices":          cfg.MaxDevices,
		},
	})
}

// Status answers the authenticated-or-not question without requiring a
// valid token; an invalid one simply reports unauthenticated.
func (h *AuthAPI) Status(c *gin.Context) {
	tokenStr := common.GetToken(c)
	if tokenStr == "" {
		common.SuccessResp(c, gin.H{"authenticated": false})
		return
	}
	claims, err := h.Mgr.Verify(tokenStr)
	if err != nil {
		common.SuccessResp(c, gin.H{"authenticated": false})
		return
	}
	current, _ := h.Mgr.Device(claims.Fingerprint)
	cfg := h.Mgr.Cfg()
	common.SuccessResp(c, gin.H{
		"authenticated":  true,
		"email":          claims.Email,
		"user_id":        claims.UserID,
		"user_online":    h.Tracker.IsUserConnected(claims.UserID),
		"current_device": current,
		"all_devices":    h.Mgr.ActiveDevices(claims.UserID),
		"remaining_ms":   remaining(current.ExpiresAt),
		"token_info": gin.H{
			"ttl_seconds":                cfg.TokenTTL.Seconds(),
			"grace_period_seconds":       cfg.GracePeriod.Seconds(),
			"activity_threshold_seconds": cfg.ActivityThreshold.Seconds(),
			"max_devices":                cfg.MaxDevices,
		},
	})
}

type logoutReq struct {
	LogoutAll bool `json:"logout_all"`
}

func (h *AuthAPI) Logout(c *gin.Context) {
	var req logoutReq
	_ = c.ShouldBindJSON(&req)
	claims := c.MustGet("claims").(*token.Claims)
	tokenStr := c.MustGet("token").(string)
	if req.LogoutAll {
		h.Mgr.RevokeAllForUser(claims.UserID, "")
		common.SuccessResp(c, gin.H{"message": "logged out on all devices"})
		return
	}
	h.Mgr.Revoke(tokenStr, session.ReasonUserLogout)
	common.SuccessResp(c, gin.H{"message": "logged out on this device"})
}

func (h *AuthAPI) Extend(c *gin.Context) {
	tokenStr := common.GetToken(c)
	if tokenStr == "" {
		common.ErrorStrResp(c, "token required", 401)
		return
	}
	result, err := h.Mgr.Extend(tokenStr)
	if err != nil {
		common.ErrorStrResp(c, "failed to extend session", 403)
		return
	}
	cfg := h.Mgr.Cfg()
	common.SuccessResp(c, gin.H{
		"token": result.Token,
		"token_info": gin.H{
			"ttl_seconds":          result.TTL,
			"expires_at":           result.ExpiresAt,
			"grace_period_seconds": int64(cfg.GracePeriod.Seconds()),
		},
	})
}

// Heartbeat is the lightweight activity ping from clients. Verify
// touches the session's activity; the tracker mirrors it per address.
func (h *AuthAPI) Heartbeat(c *gin.Context) {
	tokenStr := common.GetToken(c)
	if tokenStr == "" {
		common.ErrorStrResp(c, "token required", 401)
		return
	}
	claims, err := h.Mgr.Verify(tokenStr)
	if err != nil {
		common.ErrorStrResp(c, "invalid token", 403)
		return
	}
	h.Mgr.TouchActivity(tokenStr, c.ClientIP())
	h.Tracker.Touch(c.ClientIP(), claims.UserID, c.Request.UserAgent())
	current, _ := h.Mgr.Device(claims.Fingerprint)
	common.SuccessResp(c, gin.H{
		"user_id":      claims.UserID,
		"email":        claims.Email,
		"expires_at":   current.ExpiresAt,
		"remaining_ms": remaining(current.ExpiresAt),
		"connection": gin.H{
			"is_connected":  h.Tracker.IsConnected(c.ClientIP()),
			"ip":            utils.MaskIP(c.ClientIP()),
			"last_activity": current.LastActivity,
		},
	})
}

func (h *AuthAPI) Profile(c *gin.Context) {
	claims := c.MustGet("claims").(*token.Claims)
	common.SuccessResp(c, gin.H{
		"email":      claims.Email,
		"user_id":    claims.UserID,
		"login_time": claims.IssuedAt.Time,
		"expires_at": claims.ExpiresAt.Time,
	})
}

func authorizedEmail(email string) bool {
	return conf.Conf.AuthorizedEmail == "" || email == conf.Conf.AuthorizedEmail
}

// generateCode returns a 6-digit one-time code.
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the process has bigger problems.
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

func connContext(c *gin.Context) device.ConnContext {
	return device.ConnContext{
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		ClientTag:  c.GetHeader("X-Device-Fingerprint"),
		SessionTag: c.GetHeader("X-Session-Id"),
	}
}

func deviceResp(fingerprint string, info device.Info, ip string) gin.H {
	return gin.H{
		"fingerprint": fingerprint,
		"os":          info.OS,
		"browser":     info.Browser,
		"type":        info.Type,
		"ip":          ip,
	}
}

func remaining(expiresAt int64) int64 {
	r := expiresAt - time.Now().UnixMilli()
	if r < 0 {
		return 0
	}
	return r
}
