package browser

import (
	"fmt"

	"github.com/go-rod/rod/lib/input"
)

var modifierKeys = map[string]input.Key{
	"ctrl":    input.ControlLeft,
	"alt":     input.AltLeft,
	"shift":   input.ShiftLeft,
	"command": input.MetaLeft,
	"win":     input.MetaLeft,
}

var namedKeys = map[string]input.Key{
	"enter":     input.Enter,
	"tab":       input.Tab,
	"esc":       input.Escape,
	"backspace": input.Backspace,
	"delete":    input.Delete,
	"insert":    input.Insert,
	"up":        input.ArrowUp,
	"down":      input.ArrowDown,
	"left":      input.ArrowLeft,
	"right":     input.ArrowRight,
	"home":      input.Home,
	"end":       input.End,
	"pageup":    input.PageUp,
	"pagedown":  input.PageDown,
	"space":     input.Space,
	"f1":        input.F1,
	"f2":        input.F2,
	"f3":        input.F3,
	"f4":        input.F4,
	"f5":        input.F5,
	"f6":        input.F6,
	"f7":        input.F7,
	"f8":        input.F8,
	"f9":        input.F9,
	"f10":       input.F10,
	"f11":       input.F11,
	"f12":       input.F12,
}

// mapKey converts a canonical key name to a Rod keyboard key.
func mapKey(key string) (input.Key, error) {
	if k, ok := modifierKeys[key]; ok {
		return k, nil
	}
	if k, ok := namedKeys[key]; ok {
		return k, nil
	}
	// Printable ASCII maps to itself.
	if len(key) == 1 && key[0] >= ' ' && key[0] <= '~' {
		return input.Key(key[0]), nil
	}
	return 0, fmt.Errorf("unsupported key %q", key)
}

// chord splits keys into held modifiers and the key that is typed.
func chord(keys []string) ([]input.Key, input.Key, error) {
	if len(keys) == 0 {
		return nil, 0, fmt.Errorf("no keys given")
	}
	var mods []input.Key
	for _, name := range keys[:len(keys)-1] {
		k, err := mapKey(name)
		if err != nil {
			return nil, 0, err
		}
		mods = append(mods, k)
	}
	last, err := mapKey(keys[len(keys)-1])
	if err != nil {
		return nil, 0, err
	}
	return mods, last, nil
}
