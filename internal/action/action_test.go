package action

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Return", []string{"enter"}},
		{"return", []string{"enter"}},
		{"enter", []string{"enter"}},
		{"page_down", []string{"pagedown"}},
		{"Page_Down", []string{"pagedown"}},
		{"ctrl+c", []string{"ctrl", "c"}},
		{"Control+Shift+T", []string{"ctrl", "shift", "t"}},
		{"ctrl++", []string{"ctrl", "+"}},
		{"+", []string{"+"}},
		{"_", []string{"_"}},
		{"  Tab ", []string{"tab"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeKey(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeKey(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	for _, in := range []string{"Return", "page_down", "ctrl+c", "Control+Alt+Delete", "super+l", "ArrowUp"} {
		first := NormalizeKey(in)
		var joined string
		for i, k := range first {
			if i > 0 {
				joined += "+"
			}
			joined += k
		}
		second := NormalizeKey(joined)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("not idempotent for %q: %v then %v", in, first, second)
		}
	}
}

func TestParse_Kinds(t *testing.T) {
	tests := []struct {
		name     string
		toolName string
		input    map[string]any
		want     Action
	}{
		{"screenshot", "computer_tool", map[string]any{"action": "screenshot"}, Screenshot{}},
		{"type", "computer_tool", map[string]any{"action": "type", "text": "hello"}, TypeText{Text: "hello"}},
		{"type_text", "computer_tool", map[string]any{"action": "type_text", "text": "x"}, TypeText{Text: "x"}},
		{"key", "computer_tool", map[string]any{"action": "key", "text": "Return"}, KeyPress{Raw: "Return", Keys: []string{"enter"}}},
		{"left_click", "computer_tool", map[string]any{"action": "left_click"}, LeftClick{}},
		{"mouse_move", "computer_tool", map[string]any{"action": "mouse_move", "coordinate": []any{100.0, 200.0}}, MouseMove{X: 100, Y: 200}},
		{"mouse_move string", "computer_tool", map[string]any{"action": "mouse_move", "coordinate": "[10, 20]"}, MouseMove{X: 10, Y: 20}},
		{"mouse_move json.Number", "computer_tool", map[string]any{"action": "mouse_move", "coordinate": []any{json.Number("7"), json.Number("8")}}, MouseMove{X: 7, Y: 8}},
		{"shell_command", "computer_tool", map[string]any{"action": "shell_command", "command": "echo hi"}, ShellCommand{Command: "echo hi"}},
		{"bash tool", "bash", map[string]any{"command": "ls"}, ShellCommand{Command: "ls"}},
		{"unknown", "computer_tool", map[string]any{"action": "double_click"}, Unknown{Name: "double_click"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.toolName, tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParse_InvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
	}{
		{"type without text", map[string]any{"action": "type"}},
		{"key without text", map[string]any{"action": "key"}},
		{"mouse_move without coordinate", map[string]any{"action": "mouse_move"}},
		{"mouse_move one element", map[string]any{"action": "mouse_move", "coordinate": []any{1.0}}},
		{"mouse_move negative", map[string]any{"action": "mouse_move", "coordinate": []any{-1.0, 5.0}}},
		{"mouse_move text", map[string]any{"action": "mouse_move", "coordinate": []any{"a", "b"}}},
		{"shell without command", map[string]any{"action": "shell_command"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse("computer_tool", tt.input)
			inv, ok := got.(Invalid)
			if !ok {
				t.Fatalf("expected Invalid, got %#v", got)
			}
			if inv.Reason == "" {
				t.Error("expected a reason")
			}
		})
	}
}

func TestFromToolUse_KeepsCorrelationID(t *testing.T) {
	req := FromToolUse(transcript.ToolUse{
		ID:    "t1",
		Name:  "computer_tool",
		Input: map[string]any{"action": "mouse_move", "coordinate": []any{100.0, 200.0}},
	})
	if req.CorrelationID != "t1" {
		t.Errorf("expected correlation id t1, got %q", req.CorrelationID)
	}
	if req.Kind() != KindMouseMove {
		t.Errorf("expected mouse_move, got %s", req.Kind())
	}
}

func TestInputSchema(t *testing.T) {
	schema := InputSchema()
	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}
	for _, key := range []string{"action", "text", "coordinate", "command"} {
		if _, ok := props[key]; !ok {
			t.Errorf("expected property %q", key)
		}
	}
}
