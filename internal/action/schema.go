package action

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToolName is the tool the agent addresses desktop actions to.
const ToolName = "computer_tool"

// ComputerInput documents the arguments of ToolName for the agent.
type ComputerInput struct {
	Action     string `json:"action" jsonschema:"enum=screenshot,enum=type,enum=key,enum=left_click,enum=mouse_move,enum=shell_command,description=The desktop action to perform"`
	Text       string `json:"text,omitempty" jsonschema:"description=Text to type or key name to press (use + for chords)"`
	Coordinate []int  `json:"coordinate,omitempty" jsonschema:"minItems=2,maxItems=2,description=Absolute [x y] pointer position for mouse_move"`
	Command    string `json:"command,omitempty" jsonschema:"description=Shell command line for shell_command"`
}

// InputSchema returns the JSON Schema of ComputerInput as a plain map.
func InputSchema() map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := r.Reflect(&ComputerInput{})

	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
