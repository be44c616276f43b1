package validator

import "strings"

// buttonURLPrefixes are the only schemes accepted in button markup. The
// comparison is case-sensitive on purpose: Telegram deep links are always
// lowercase and uppercased schemes are a common spoofing trick.
var buttonURLPrefixes = []string{"http://", "https://", "t.me/"}

// AllowedButtonURL reports whether a button URL uses an accepted prefix.
func AllowedButtonURL(rawURL string) bool {
	for _, prefix := range buttonURLPrefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return true
		}
	}
	return false
}

// TruncateCaption truncates a caption to maxLen characters. Telegram caps
// media captions at 1024 characters and rejects longer edits outright.
// Uses rune-level truncation to properly handle UTF-8 multi-byte characters.
func TruncateCaption(caption string, maxLen int) string {
	runes := []rune(caption)
	if len(runes) <= maxLen {
		return caption
	}
	return string(runes[:maxLen])
}
