// Package agent runs the conversation between the operator, the agent and
// the desktop.
//
// InputGuard scans operator messages for known injection patterns before
// they join the transcript. Action is configurable via agent.injection_action:
//   - "log":   info-level logging (quiet)
//   - "warn":  warning-level logging (default)
//   - "block": refuse the message and ask again
//   - "off":   disable scanning entirely
package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// GuardAction is what the loop does when operator input matches a pattern.
type GuardAction string

const (
	GuardOff   GuardAction = "off"
	GuardLog   GuardAction = "log"
	GuardWarn  GuardAction = "warn"
	GuardBlock GuardAction = "block"
)

// ParseGuardAction accepts the config spelling; empty means warn.
func ParseGuardAction(s string) (GuardAction, error) {
	switch a := GuardAction(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return GuardWarn, nil
	case GuardOff, GuardLog, GuardWarn, GuardBlock:
		return a, nil
	default:
		return "", fmt.Errorf("unknown injection action %q (want off, log, warn or block)", s)
	}
}

// guardPattern pairs a human-readable name with a compiled regex.
type guardPattern struct {
	name    string
	pattern *regexp.Regexp
}

// InputGuard scans user input for known prompt injection patterns.
type InputGuard struct {
	patterns []guardPattern
}

// NewInputGuard creates an InputGuard with the default set of injection detection patterns.
func NewInputGuard() *InputGuard {
	return &InputGuard{
		patterns: defaultGuardPatterns(),
	}
}

// Scan checks a message against all known injection patterns.
// Returns the names of matched patterns (empty slice = no matches).
func (g *InputGuard) Scan(message string) []string {
	if message == "" {
		return nil
	}
	var matches []string
	for _, gp := range g.patterns {
		if gp.pattern.MatchString(message) {
			matches = append(matches, gp.name)
		}
	}
	return matches
}

// defaultGuardPatterns returns the built-in set of injection detection patterns.
func defaultGuardPatterns() []guardPattern {
	return []guardPattern{
		{
			name:    "ignore_instructions",
			pattern: regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier|preceding)\s+(instructions?|rules?|prompts?|directives?|guidelines?)`),
		},
		{
			name:    "role_override",
			pattern: regexp.MustCompile(`(?i)(you are now|from now on you are|pretend you are|act as if you are|imagine you are)\s+`),
		},
		{
			name:    "system_tags",
			pattern: regexp.MustCompile(`(?i)</?system>|\[SYSTEM\]|\[INST\]|<<SYS>>|<\|im_start\|>system`),
		},
		{
			name:    "instruction_injection",
			pattern: regexp.MustCompile(`(?i)(new instructions?:|override:|system prompt:|<\|system\|>)`),
		},
		{
			name:    "null_bytes",
			pattern: regexp.MustCompile(`\x00`),
		},
		{
			name:    "delimiter_escape",
			pattern: regexp.MustCompile(`(?i)(end of system|begin user input|</?(instructions?|rules|prompt|context)>)`),
		},
		{
			name:    "tool_result_forgery",
			pattern: regexp.MustCompile(`(?i)("toolResult"|"toolUseId"|<tool_result>)`),
		},
	}
}

// PatternNames returns the names of all configured patterns.
func (g *InputGuard) PatternNames() []string {
	names := make([]string, len(g.patterns))
	for i, gp := range g.patterns {
		names[i] = gp.name
	}
	return names
}
