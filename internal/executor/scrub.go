package executor

import "regexp"

// Credential patterns scrubbed from shell output before it reaches the agent.
var credentialPatterns = []*regexp.Regexp{
	// OpenAI
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
	// Anthropic
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`),
	// GitHub personal access tokens
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`ghu_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`ghs_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`ghr_[a-zA-Z0-9]{36}`),
	// AWS access key ids (long-term and STS)
	regexp.MustCompile(`(AKIA|ASIA)[A-Z0-9]{16}`),
	// AWS secret keys and session tokens as printed by env / aws configure
	regexp.MustCompile(`(?i)aws_(secret_access_key|session_token)\s*[:=]\s*\S+`),
	// Generic key=value patterns (case-insensitive)
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|bearer|authorization)\s*[:=]\s*["']?\S{8,}["']?`),
}

const redactedPlaceholder = "[REDACTED]"

// ScrubCredentials replaces known credential patterns in text with [REDACTED].
func ScrubCredentials(text string) string {
	for _, pat := range credentialPatterns {
		text = pat.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}
