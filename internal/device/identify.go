package device

import (
	"strings"

	"github.com/google/uuid"
	"github.com/semonara/semonara/pkg/utils"
)

// Info is a coarse device descriptor derived from the user agent. It is
// descriptive metadata only and never authorization-relevant.
type Info struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Type    string `json:"type"`
}

// ConnContext carries the connection-level signals a fingerprint is
// derived from. Missing fields are treated as empty.
type ConnContext struct {
	IP        string
	UserAgent string
	// ClientTag is an opaque client-generated device hint.
	ClientTag string
	// SessionTag is an opaque client-generated browser-session hint.
	SessionTag string
}

// Parse extracts OS, browser and form factor from a raw user agent.
// Unrecognized patterns degrade to "unknown" rather than failing.
func Parse(userAgent string) Info {
	ua := strings.ToLower(userAgent)

	os := "unknown"
	switch {
	case strings.Contains(ua, "windows"):
		os = "windows"
	// iOS agents advertise "like Mac OS X", so check them before mac.
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		os = "ios"
	case strings.Contains(ua, "mac"):
		os = "macos"
	case strings.Contains(ua, "android"):
		os = "android"
	case strings.Contains(ua, "linux"):
		os = "linux"
	}

	browser := "unknown"
	switch {
	case strings.Contains(ua, "edg"):
		browser = "edge"
	case strings.Contains(ua, "chrome"):
		browser = "chrome"
	case strings.Contains(ua, "firefox"):
		browser = "firefox"
	case strings.Contains(ua, "safari"):
		browser = "safari"
	}

	formFactor := "desktop"
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		formFactor = "tablet"
	} else if strings.Contains(ua, "mobile") {
		formFactor = "mobile"
	}

	return Info{OS: os, Browser: browser, Type: formFactor}
}

// Identify derives a fingerprint for the connecting client. A uniqueness
// nonce is part of the hash input, so every login handshake yields a
// distinct identity; the device cap therefore counts login instances,
// not physical devices.
func Identify(ctx ConnContext) string {
	info := Parse(ctx.UserAgent)
	data := strings.Join([]string{
		ctx.IP,
		info.Browser,
		info.OS,
		info.Type,
		ctx.ClientTag,
		ctx.SessionTag,
		uuid.NewString(),
	}, "|")
	return utils.GetSHA256Encode([]byte(data))[:16]
}
