package bedrock

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Error wraps a failed Bedrock call with its throttling classification.
type Error struct {
	Op        string
	Code      string
	throttled bool
	Err       error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("bedrock %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("bedrock %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Throttled reports whether the service rejected the call for rate.
func (e *Error) Throttled() bool { return e.throttled }

var throttlingCodes = map[string]bool{
	"ThrottlingException":      true,
	"TooManyRequestsException": true,
}

// IsThrottling reports whether err is a Bedrock rate rejection.
func IsThrottling(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.throttled
	}
	var ae smithy.APIError
	return errors.As(err, &ae) && throttlingCodes[ae.ErrorCode()]
}

func classify(op string, err error) error {
	e := &Error{Op: op, Err: err, throttled: IsThrottling(err)}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		e.Code = ae.ErrorCode()
	}
	return e
}
