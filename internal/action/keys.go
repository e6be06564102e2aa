package action

import "strings"

// keyAliases folds common spellings onto one canonical name. No alias target
// is itself an alias key, which keeps NormalizeKey idempotent.
var keyAliases = map[string]string{
	"return":     "enter",
	"control":    "ctrl",
	"cmd":        "command",
	"super":      "win",
	"escape":     "esc",
	"del":        "delete",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
}

// NormalizeKey converts an agent key name into the canonical key list:
// lowercase, "return" becomes "enter", underscore-joined words are
// concatenated ("page_down" -> "pagedown") and "+" separates the keys of a
// chord ("ctrl+c" -> ["ctrl", "c"]).
func NormalizeKey(name string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	if name == "+" {
		return []string{"+"}
	}

	plusKey := strings.HasSuffix(name, "++")
	if plusKey {
		name = strings.TrimSuffix(name, "++")
	}

	var keys []string
	for _, part := range strings.Split(name, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part != "_" {
			part = strings.ReplaceAll(part, "_", "")
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		keys = append(keys, part)
	}
	if plusKey {
		keys = append(keys, "+")
	}
	return keys
}

// IsChord reports whether keys must be held simultaneously.
func IsChord(keys []string) bool { return len(keys) > 1 }
