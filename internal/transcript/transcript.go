// Package transcript holds the linear conversation shared with the agent on
// every call. A Transcript is append-only and owned by a single action loop.
package transcript

import "fmt"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation. Content order is significant.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// UserText builds a user message holding a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []Block{Text{Text: text}}}
}

// Transcript is the ordered message history of one session.
type Transcript struct {
	messages []Message
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append adds a message at the end. Messages with an unknown role or no
// content are rejected so the history sent to the agent stays well-formed.
func (t *Transcript) Append(msg Message) error {
	if msg.Role != RoleUser && msg.Role != RoleAssistant {
		return fmt.Errorf("transcript: invalid role %q", msg.Role)
	}
	if len(msg.Content) == 0 {
		return fmt.Errorf("transcript: empty %s message", msg.Role)
	}
	t.messages = append(t.messages, CloneMessage(msg))
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// Messages returns a deep copy of the history.
func (t *Transcript) Messages() []Message {
	return CloneMessages(t.messages)
}

// Last returns the most recent message, if any.
func (t *Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return CloneMessage(t.messages[len(t.messages)-1]), true
}

// CloneMessage returns a deep copy suitable for isolation across component boundaries.
func CloneMessage(in Message) Message {
	out := Message{Role: in.Role}
	if in.Content != nil {
		out.Content = make([]Block, len(in.Content))
		for i, b := range in.Content {
			out.Content[i] = cloneBlock(b)
		}
	}
	return out
}

// CloneMessages returns deep copies of all messages.
func CloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i := range in {
		out[i] = CloneMessage(in[i])
	}
	return out
}
