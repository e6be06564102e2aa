package agent

import (
	"context"

	"github.com/nextlevelbuilder/agentbridge/internal/action"
	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

// StopReason tells why the agent stopped producing its reply. Values other
// than the known ones are preserved as received.
type StopReason string

const (
	StopToolUse StopReason = "tool_use"
	StopEndTurn StopReason = "end_turn"
)

// Turn is one agent reply.
type Turn struct {
	StopReason StopReason
	Content    []transcript.Block
}

// Client sends the conversation so far and returns the agent's next turn.
type Client interface {
	Send(ctx context.Context, messages []transcript.Message) (*Turn, error)
}

// Executor performs one action and reports it as exactly one ToolResult.
type Executor interface {
	Execute(ctx context.Context, req action.Request) transcript.ToolResult
}

// Console is the operator's side of the conversation.
type Console interface {
	Show(text string)
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// TerminationReason is why Loop.Run returned.
type TerminationReason string

const (
	// UserEnded: the operator typed exit, an empty line, or closed input.
	UserEnded TerminationReason = "user_ended"
	// AgentUnavailable: the agent call failed.
	AgentUnavailable TerminationReason = "agent_unavailable"
	// UnexpectedStopReason: the agent stopped for a reason the loop can't act on.
	UnexpectedStopReason TerminationReason = "unexpected_stop_reason"
	// Interrupted: the context was cancelled, e.g. by SIGINT.
	Interrupted TerminationReason = "interrupted"
	// TurnLimit: the configured maximum number of agent calls was reached.
	TurnLimit TerminationReason = "turn_limit"
)
