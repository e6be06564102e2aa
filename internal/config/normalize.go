package config

import (
	"regexp"
	"strings"
)

// DefaultSessionName is used when no usable session name is given.
const DefaultSessionName = "session"

var (
	validNameRe  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	invalidChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	leadingDash  = regexp.MustCompile(`^-+`)
	trailingDash = regexp.MustCompile(`-+$`)
)

// NormalizeSessionName turns a user-provided label into a name safe for a
// directory or S3 key segment:
//   - Lowercase, max 64 chars
//   - Only [a-z0-9_-] allowed
//   - Invalid chars replaced with "-"
//   - Leading/trailing dashes stripped
//   - Empty result defaults to "session"
func NormalizeSessionName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DefaultSessionName
	}

	lower := strings.ToLower(trimmed)
	if validNameRe.MatchString(lower) {
		return lower
	}

	result := invalidChars.ReplaceAllString(lower, "-")
	result = leadingDash.ReplaceAllString(result, "")
	result = trailingDash.ReplaceAllString(result, "")

	if len(result) > 64 {
		result = trailingDash.ReplaceAllString(result[:64], "")
	}

	if result == "" {
		return DefaultSessionName
	}
	return result
}
