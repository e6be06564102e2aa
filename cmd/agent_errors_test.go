package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
)

func TestFormatAgentError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"throttled code", fmt.Errorf("converse: %w", &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}), "rate limit"},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"}, "Access denied"},
		{"not found", &smithy.GenericAPIError{Code: "ResourceNotFoundException"}, "BEDROCK_AGENT_ID"},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException", Message: "bad"}, "rejected"},
		{"credentials", errors.New("failed to retrieve credentials: no EC2 IMDS role found"), "credentials"},
		{"timeout", errors.New("context deadline exceeded"), "timed out"},
		{"generic", errors.New("boom"), "something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatAgentError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("formatAgentError() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormatAgentError_HidesPayload(t *testing.T) {
	got := formatAgentError(errors.New(`{"secret":"abc123"}`))
	if strings.Contains(got, "abc123") {
		t.Errorf("raw payload leaked: %q", got)
	}
}
