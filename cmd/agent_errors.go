package cmd

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/aws/smithy-go"
)

// formatAgentError turns a Bedrock failure into a short message for the
// operator. Never expose raw API payloads to the user.
func formatAgentError(err error) string {
	raw := err.Error()
	lower := strings.ToLower(raw)

	code := ""
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}

	// 1. Throttling
	if code == "ThrottlingException" || code == "TooManyRequestsException" ||
		containsAny(lower, "rate limit", "too many requests", "429", "throttl") {
		return "⚠️ Bedrock rate limit reached. Please try again later."
	}

	// 2. Credentials
	if containsAny(lower, "failed to retrieve credentials", "no valid credential", "expiredtoken", "security token included in the request is invalid") {
		return "⚠️ AWS credentials are missing or expired. Configure a profile or set AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY."
	}

	// 3. Access
	if code == "AccessDeniedException" || containsAny(lower, "access denied", "not authorized", "403") {
		return "⚠️ Access denied. Check the IAM policy and that model access is enabled in this region."
	}

	// 4. Unknown agent or alias
	if code == "ResourceNotFoundException" {
		return "⚠️ Agent or alias not found. Check BEDROCK_AGENT_ID and BEDROCK_AGENT_ALIAS_ID."
	}

	// 5. Request shape (tool_use/tool_result mismatch and similar)
	if code == "ValidationException" || isMessageFormatError(lower) {
		return "⚠️ The request was rejected as invalid. Run with --verbose for details."
	}

	// 6. Timeout
	if containsAny(lower, "timeout", "timed out", "deadline exceeded") {
		return "⚠️ Request timed out. Please try again."
	}

	// 7. Generic: log the full error, show only a safe message
	slog.Warn("unclassified agent error", "error", raw)
	return "⚠️ Sorry, something went wrong talking to the agent. Please try again."
}

// isMessageFormatError checks for tool_use/tool_result mismatch and other
// message format errors.
func isMessageFormatError(lower string) bool {
	return containsAny(lower,
		"tool_use_id",
		"tooluseid",
		"unexpected tool",
		"roles must alternate",
		"tool_result block",
		"tool_use block",
	)
}

// containsAny returns true if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
