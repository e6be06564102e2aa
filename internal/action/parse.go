package action

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse maps a tool name and its input to an Action. The action name comes
// from input["action"], falling back to the tool name itself so dedicated
// tools such as "bash" resolve without an action field.
func Parse(toolName string, input map[string]any) Action {
	name, _ := getString(input, "action")
	if name == "" {
		name = toolName
	}

	switch strings.ToLower(name) {
	case "screenshot":
		return Screenshot{}

	case "type", "type_text":
		text, ok := getString(input, "text")
		if !ok {
			return Invalid{Name: name, Reason: "missing 'text'"}
		}
		return TypeText{Text: text}

	case "key", "key_press":
		raw, ok := getString(input, "text")
		if !ok {
			raw, ok = getString(input, "key")
		}
		if !ok || strings.TrimSpace(raw) == "" {
			return Invalid{Name: name, Reason: "missing 'text'"}
		}
		return KeyPress{Raw: raw, Keys: NormalizeKey(raw)}

	case "left_click":
		return LeftClick{}

	case "mouse_move":
		x, y, err := getCoordinate(input, "coordinate")
		if err != nil {
			return Invalid{Name: name, Reason: err.Error()}
		}
		return MouseMove{X: x, Y: y}

	case "shell_command", "bash":
		cmd, ok := getString(input, "command")
		if !ok {
			cmd, ok = getString(input, "text")
		}
		if !ok || strings.TrimSpace(cmd) == "" {
			return Invalid{Name: name, Reason: "missing 'command'"}
		}
		return ShellCommand{Command: cmd}

	default:
		return Unknown{Name: name}
	}
}

// --- helpers for pulling typed values out of decoded JSON ---

func getString(args map[string]any, key string) (string, bool) {
	val, ok := args[key]
	if !ok || val == nil {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// int64er covers json.Number and smithy document.Number.
type int64er interface {
	Int64() (int64, error)
}

func toInt(val any) (int, bool) {
	switch v := val.(type) {
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case int64er:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

// getCoordinate accepts [x, y] as a JSON array or as a "[x, y]" / "x,y" string.
func getCoordinate(args map[string]any, key string) (int, int, error) {
	val, ok := args[key]
	if !ok || val == nil {
		return 0, 0, fmt.Errorf("missing '%s'", key)
	}

	var pair []any
	switch v := val.(type) {
	case []any:
		pair = v
	case []int:
		for _, n := range v {
			pair = append(pair, n)
		}
	case []float64:
		for _, n := range v {
			pair = append(pair, n)
		}
	case string:
		for _, p := range strings.Split(strings.Trim(strings.TrimSpace(v), "[]()"), ",") {
			pair = append(pair, p)
		}
	default:
		return 0, 0, fmt.Errorf("'%s' must be a pair of integers", key)
	}

	if len(pair) != 2 {
		return 0, 0, fmt.Errorf("'%s' must have exactly 2 elements, got %d", key, len(pair))
	}
	x, okX := toInt(pair[0])
	y, okY := toInt(pair[1])
	if !okX || !okY {
		return 0, 0, fmt.Errorf("'%s' must be a pair of integers", key)
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("'%s' (%d, %d) is out of range", key, x, y)
	}
	return x, y, nil
}
