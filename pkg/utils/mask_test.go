package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"192.168.1.42", "192.*.*.42"},
		{"10.0.0.1", "10.*.*.1"},
		{"2001:db8:85a3:0:0:8a2e:370:7334", "2001:*:*:*:*:*:*:7334"},
		{"::1", "::1"},
		{"localhost", "localhost"},
		{"1.2.3", "1.2.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskIP(tt.in), tt.in)
	}
}

func TestGetSHA256Encode(t *testing.T) {
	got := GetSHA256Encode([]byte("hello"))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", got)
	assert.Len(t, GetSHA256Encode(nil), 64)
}
