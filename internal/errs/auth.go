package errs

import "errors"

var (
	EmailNotAuthorized = errors.New("email not authorized")
	UserBlocked        = errors.New("user temporarily blocked")
	CodeMismatch       = errors.New("invalid or expired code")
	TooManyAttempts    = errors.New("too many login attempts")

	InvalidToken    = errors.New("invalid token")
	SessionNotFound = errors.New("session not found")
	DeviceNotFound  = errors.New("device not found")
)
