package execution

import "unicode/utf8"

// tail returns at most limit bytes from the end of s without splitting a
// UTF-8 sequence. A limit of zero or less disables truncation.
func tail(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	start := len(s) - limit
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
