package agent

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

// Pruning defaults.
const (
	defaultKeepScreenshots       = 3
	defaultKeepLastAssistants    = 3
	defaultSoftTrimMaxChars      = 4000
	defaultSoftTrimHeadChars     = 1500
	defaultSoftTrimTailChars     = 1500
	defaultScreenshotPlaceholder = "[Old screenshot removed]"
)

// PruningConfig shrinks what is sent to the agent without touching the
// transcript itself. Zero fields take defaults.
type PruningConfig struct {
	KeepScreenshots    int    `json:"keep_screenshots,omitempty"`
	KeepLastAssistants int    `json:"keep_last_assistants,omitempty"`
	SoftTrimMaxChars   int    `json:"soft_trim_max_chars,omitempty"`
	SoftTrimHeadChars  int    `json:"soft_trim_head_chars,omitempty"`
	SoftTrimTailChars  int    `json:"soft_trim_tail_chars,omitempty"`
	Placeholder        string `json:"placeholder,omitempty"`
}

// effectivePruningSettings holds resolved pruning settings with defaults applied.
type effectivePruningSettings struct {
	keepScreenshots    int
	keepLastAssistants int
	softTrimMaxChars   int
	softTrimHeadChars  int
	softTrimTailChars  int
	placeholder        string
}

func resolvePruningSettings(cfg *PruningConfig) *effectivePruningSettings {
	s := &effectivePruningSettings{
		keepScreenshots:    defaultKeepScreenshots,
		keepLastAssistants: defaultKeepLastAssistants,
		softTrimMaxChars:   defaultSoftTrimMaxChars,
		softTrimHeadChars:  defaultSoftTrimHeadChars,
		softTrimTailChars:  defaultSoftTrimTailChars,
		placeholder:        defaultScreenshotPlaceholder,
	}
	if cfg == nil {
		return s
	}
	if cfg.KeepScreenshots > 0 {
		s.keepScreenshots = cfg.KeepScreenshots
	}
	if cfg.KeepLastAssistants > 0 {
		s.keepLastAssistants = cfg.KeepLastAssistants
	}
	if cfg.SoftTrimMaxChars > 0 {
		s.softTrimMaxChars = cfg.SoftTrimMaxChars
	}
	if cfg.SoftTrimHeadChars > 0 {
		s.softTrimHeadChars = cfg.SoftTrimHeadChars
	}
	if cfg.SoftTrimTailChars > 0 {
		s.softTrimTailChars = cfg.SoftTrimTailChars
	}
	if cfg.Placeholder != "" {
		s.placeholder = cfg.Placeholder
	}
	return s
}

// pruneMessages drops all but the newest screenshots and soft-trims long
// tool output older than the last keepLastAssistants replies. Every
// ToolResult keeps its id and position; only its content shrinks.
// msgs must be a copy the caller owns.
func pruneMessages(msgs []transcript.Message, cfg *PruningConfig) []transcript.Message {
	if len(msgs) == 0 {
		return msgs
	}
	settings := resolvePruningSettings(cfg)
	cutoff := findAssistantCutoff(msgs, settings.keepLastAssistants)

	images := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != transcript.RoleUser {
			continue
		}
		for j := len(msgs[i].Content) - 1; j >= 0; j-- {
			tr, ok := msgs[i].Content[j].(transcript.ToolResult)
			if !ok {
				continue
			}
			parts := make([]transcript.ResultContent, 0, len(tr.Content))
			for k := len(tr.Content) - 1; k >= 0; k-- {
				switch c := tr.Content[k].(type) {
				case transcript.Image:
					images++
					if images > settings.keepScreenshots {
						parts = append(parts, transcript.Text{Text: settings.placeholder})
						continue
					}
				case transcript.Text:
					if i < cutoff {
						c.Text = softTrim(c.Text, settings)
						parts = append(parts, c)
						continue
					}
				}
				parts = append(parts, tr.Content[k])
			}
			slices.Reverse(parts)
			tr.Content = parts
			msgs[i].Content[j] = tr
		}
	}
	return msgs
}

// findAssistantCutoff returns the index of the Nth-from-last assistant message.
// Messages at or after this index are protected from trimming.
// Returns 0 if not enough assistant messages exist.
func findAssistantCutoff(msgs []transcript.Message, keepLast int) int {
	if keepLast <= 0 {
		return len(msgs)
	}

	remaining := keepLast
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == transcript.RoleAssistant {
			remaining--
			if remaining == 0 {
				return i
			}
		}
	}
	return 0
}

func softTrim(s string, settings *effectivePruningSettings) string {
	n := utf8.RuneCountInString(s)
	if n <= settings.softTrimMaxChars {
		return s
	}
	return fmt.Sprintf("%s\n...\n%s\n\n[Tool result trimmed: kept first %d chars and last %d chars of %d chars.]",
		takeHead(s, settings.softTrimHeadChars), takeTail(s, settings.softTrimTailChars),
		settings.softTrimHeadChars, settings.softTrimTailChars, n)
}

// takeHead returns the first n runes of s.
func takeHead(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// takeTail returns the last n runes of s.
func takeTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
