package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedButtonURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com", true},
		{"t.me/channel", true},
		{"ftp://example.com", false},
		{"HTTPS://example.com", false}, // case-sensitive on purpose
		{"tg://resolve?domain=x", false},
		{"", false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, AllowedButtonURL(tc.url), "url %q", tc.url)
	}
}

func TestTruncateCaption(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", TruncateCaption("short", 10))
	assert.Equal(t, "abcde", TruncateCaption("abcdefgh", 5))
	// rune-safe: multi-byte characters are never split
	assert.Equal(t, "héllø", TruncateCaption("héllø wörld", 5))
}
