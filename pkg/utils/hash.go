package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// GetSHA256Encode returns the hex-encoded SHA-256 digest of data.
func GetSHA256Encode(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
