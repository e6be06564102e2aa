// Package action turns the agent's tool-use arguments into a closed set of
// typed desktop actions. Validation happens here, once, at the boundary.
package action

import "github.com/nextlevelbuilder/agentbridge/internal/transcript"

// Kind names an action variant.
type Kind string

const (
	KindScreenshot   Kind = "screenshot"
	KindTypeText     Kind = "type_text"
	KindKeyPress     Kind = "key_press"
	KindLeftClick    Kind = "left_click"
	KindMouseMove    Kind = "mouse_move"
	KindShellCommand Kind = "shell_command"
	KindUnknown      Kind = "unknown"
	KindInvalid      Kind = "invalid"
)

// Action is one of Screenshot, TypeText, KeyPress, LeftClick, MouseMove,
// ShellCommand, Unknown or Invalid.
type Action interface {
	Kind() Kind
}

// Screenshot captures the current display.
type Screenshot struct{}

// TypeText emits literal text as keystrokes.
type TypeText struct {
	Text string
}

// KeyPress presses a key or a chord. Raw is the name the agent sent; Keys is
// its normalized form (one entry per simultaneously held key).
type KeyPress struct {
	Raw  string
	Keys []string
}

// LeftClick clicks at the current pointer position.
type LeftClick struct{}

// MouseMove moves the pointer to an absolute coordinate.
type MouseMove struct {
	X, Y int
}

// ShellCommand runs a command line in a subprocess.
type ShellCommand struct {
	Command string
}

// Unknown is an action name outside the supported set.
type Unknown struct {
	Name string
}

// Invalid is a known action whose arguments failed validation.
type Invalid struct {
	Name   string
	Reason string
}

func (Screenshot) Kind() Kind   { return KindScreenshot }
func (TypeText) Kind() Kind     { return KindTypeText }
func (KeyPress) Kind() Kind     { return KindKeyPress }
func (LeftClick) Kind() Kind    { return KindLeftClick }
func (MouseMove) Kind() Kind    { return KindMouseMove }
func (ShellCommand) Kind() Kind { return KindShellCommand }
func (Unknown) Kind() Kind      { return KindUnknown }
func (Invalid) Kind() Kind      { return KindInvalid }

// Request is an action extracted from one ToolUse block. It is derived per
// turn and never stored.
type Request struct {
	CorrelationID string
	Action        Action
	Args          map[string]any
}

// Kind is shorthand for r.Action.Kind().
func (r Request) Kind() Kind {
	if r.Action == nil {
		return KindUnknown
	}
	return r.Action.Kind()
}

// FromToolUse parses a ToolUse into a Request.
func FromToolUse(tu transcript.ToolUse) Request {
	return Request{
		CorrelationID: tu.ID,
		Action:        Parse(tu.Name, tu.Input),
		Args:          tu.Input,
	}
}
