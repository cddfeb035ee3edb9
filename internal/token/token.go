package token

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/semonara/semonara/internal/device"
	"github.com/semonara/semonara/internal/errs"
)

// Claims is the payload of a session token: identity plus the device
// binding captured at issuance. Descriptive fields are a snapshot and
// must be re-validated against registry state, never trusted on their own.
type Claims struct {
	jwt.RegisteredClaims
	Email       string      `json:"email"`
	UserID      string      `json:"user_id"`
	Fingerprint string      `json:"fingerprint"`
	IP          string      `json:"ip"`
	Device      device.Info `json:"device"`
}

// Issue signs a token for the given claims with an expiry of ttl from now.
func Issue(secret []byte, email, userID, fingerprint, ip string, info device.Info, ttl time.Duration) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       email,
		UserID:      userID,
		Fingerprint: fingerprint,
		IP:          ip,
		Device:      info,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", 0, errors.Wrap(err, "failed sign token")
	}
	return signed, expiresAt.UnixMilli(), nil
}

// Decode checks a token's signature but not its time claims. Extension
// and revocation must keep working inside the grace window, after the
// expiry claim has already passed; the session registry stays the
// authoritative gate for those paths.
func Decode(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.InvalidToken
		}
		return secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !t.Valid {
		return nil, errs.InvalidToken
	}
	if claims.Fingerprint == "" {
		return nil, errs.InvalidToken
	}
	return &claims, nil
}

// Verify parses and validates a token. Malformed tokens, bad signatures
// and expired timestamps all come back as errs.InvalidToken; callers must
// not distinguish the sub-reason outward.
func Verify(tokenStr string, secret []byte) (*Claims, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.InvalidToken
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return nil, errs.InvalidToken
	}
	if claims.Fingerprint == "" {
		return nil, errs.InvalidToken
	}
	return &claims, nil
}
