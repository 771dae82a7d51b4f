package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ipv4 standard address", input: "192.168.1.47", expected: "192.168.1.0"},
		{name: "ipv4 already zeroed", input: "10.0.0.0", expected: "10.0.0.0"},
		{name: "ipv4 localhost", input: "127.0.0.1", expected: "127.0.0.0"},
		{name: "ipv4 mapped ipv6", input: "::ffff:203.0.113.9", expected: "203.0.113.0"},
		{name: "ipv6 full address", input: "2001:db8:85a3:0000:0000:8a2e:0370:7334", expected: "2001:0db8:85a3::"},
		{name: "ipv6 compressed address", input: "2001:db8:85a3::8a2e:370:7334", expected: "2001:0db8:85a3::"},
		{name: "ipv6 loopback", input: "::1", expected: "0000:0000:0000::"},
		{name: "empty", input: "", expected: "unknown"},
		{name: "unknown marker", input: "unknown", expected: "unknown"},
		{name: "garbage", input: "not-an-ip", expected: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestHashIdentifier(t *testing.T) {
	t.Run("stable for same input", func(t *testing.T) {
		assert.Equal(t, HashIdentifier("A123"), HashIdentifier("A123"))
	})

	t.Run("differs for different input", func(t *testing.T) {
		assert.NotEqual(t, HashIdentifier("A123"), HashIdentifier("a123"))
	})

	t.Run("does not contain the raw value", func(t *testing.T) {
		h := HashIdentifier("A123")
		assert.Len(t, h, 16)
		assert.NotContains(t, h, "A123")
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Empty(t, HashIdentifier(""))
	})
}
