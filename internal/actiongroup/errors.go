package actiongroup

import (
	"errors"
	"fmt"
)

// Error codes returned in error envelopes.
const (
	CodeActionGroup = "ActionGroupError"
	CodeBooking     = "BookingOperationError"
	CodeBadRequest  = "BadRequest"
	CodeUpstream    = "UpstreamError"
)

// Error is a handler failure with the code the agent should see.
type Error struct {
	Status  int // upstream or validation status, 0 when unknown
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// codeOf picks the envelope code for err, defaulting to fallback.
func codeOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return fallback
}
