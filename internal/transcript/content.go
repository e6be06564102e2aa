package transcript

import (
	"fmt"
	"strings"
)

// Block is a closed tagged variant: Text, ToolUse or ToolResult.
type Block interface {
	isBlock()
}

// Text is plain text content.
type Text struct {
	Text string `json:"text"`
}

// ToolUse is the agent's request to run a named local action.
type ToolUse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult answers a ToolUse, keyed by its id.
type ToolResult struct {
	ToolUseID string          `json:"tool_use_id"`
	Content   []ResultContent `json:"content"`
	Status    Status          `json:"status,omitempty"`
}

func (Text) isBlock()       {}
func (ToolUse) isBlock()    {}
func (ToolResult) isBlock() {}

// Status is the optional outcome flag of a ToolResult.
type Status string

const (
	StatusUnset   Status = ""
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ResultContent is Text or Image inside a ToolResult.
type ResultContent interface {
	isResultContent()
}

// Image is encoded image data (png, jpeg, ...).
type Image struct {
	Format string `json:"format"`
	Bytes  []byte `json:"-"`
}

func (Text) isResultContent()  {}
func (Image) isResultContent() {}

// IsError reports whether the result carries an explicit error status.
func (r ToolResult) IsError() bool { return r.Status == StatusError }

// TextContent joins all text parts of the result.
func (r ToolResult) TextContent() string {
	var parts []string
	for _, c := range r.Content {
		if t, ok := c.(Text); ok {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolUses returns the ToolUse blocks of content, in order.
func ToolUses(content []Block) []ToolUse {
	var out []ToolUse
	for _, b := range content {
		if tu, ok := b.(ToolUse); ok {
			out = append(out, tu)
		}
	}
	return out
}

// JoinText concatenates the text blocks of content with newlines.
func JoinText(content []Block) string {
	var parts []string
	for _, b := range content {
		if t, ok := b.(Text); ok && t.Text != "" {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ValidateToolResults checks that results answer every ToolUse of content
// exactly once, in the same order.
func ValidateToolResults(content []Block, results []ToolResult) error {
	uses := ToolUses(content)
	if len(uses) != len(results) {
		return fmt.Errorf("transcript: %d tool uses but %d results", len(uses), len(results))
	}
	for i, tu := range uses {
		if results[i].ToolUseID != tu.ID {
			return fmt.Errorf("transcript: result %d answers %q, want %q", i, results[i].ToolUseID, tu.ID)
		}
	}
	return nil
}

// ResultBlocks converts results into message content.
func ResultBlocks(results []ToolResult) []Block {
	out := make([]Block, len(results))
	for i, r := range results {
		out[i] = r
	}
	return out
}

func cloneBlock(b Block) Block {
	switch v := b.(type) {
	case ToolUse:
		v.Input = cloneMap(v.Input)
		return v
	case ToolResult:
		if v.Content != nil {
			content := make([]ResultContent, len(v.Content))
			for i, c := range v.Content {
				if img, ok := c.(Image); ok {
					img.Bytes = append([]byte(nil), img.Bytes...)
					c = img
				}
				content[i] = c
			}
			v.Content = content
		}
		return v
	default:
		return b
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	default:
		return v
	}
}
