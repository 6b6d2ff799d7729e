// Package util provides small shared helpers used across the outlook-agent
// library that don't belong to a domain-specific package.
package util

// SafeTruncate truncates a string to at most maxLen characters without
// panicking. It is used when logging identifiers derived from credentials
// (draft IDs, token prefixes) where only a short prefix should appear.
// A negative maxLen is treated as zero.
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
