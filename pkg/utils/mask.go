package utils

import "strings"

// MaskIP anonymizes the middle segments of an IPv4 or IPv6 address
// before it is stored or logged. Unrecognized formats pass through.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}
	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) <= 2 {
			return ip
		}
		for i := 1; i < len(parts)-1; i++ {
			if parts[i] != "" {
				parts[i] = "*"
			}
		}
		return strings.Join(parts, ":")
	}
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	for i := 1; i < len(parts)-1; i++ {
		parts[i] = "*"
	}
	return strings.Join(parts, ".")
}
