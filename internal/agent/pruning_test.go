package agent

import (
	"strings"
	"testing"

	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

func resultMsg(id string, parts ...transcript.ResultContent) transcript.Message {
	return transcript.Message{Role: transcript.RoleUser, Content: []transcript.Block{
		transcript.ToolResult{ToolUseID: id, Content: parts, Status: transcript.StatusSuccess},
	}}
}

func assistantMsg(text string) transcript.Message {
	return transcript.Message{Role: transcript.RoleAssistant, Content: []transcript.Block{transcript.Text{Text: text}}}
}

func TestPruneMessages_KeepsNewestScreenshots(t *testing.T) {
	img := transcript.Image{Format: "png", Bytes: []byte{1}}
	msgs := []transcript.Message{
		transcript.UserText("go"),
		assistantMsg("1"), resultMsg("a", transcript.Text{Text: "OK"}, img),
		assistantMsg("2"), resultMsg("b", transcript.Text{Text: "OK"}, img),
		assistantMsg("3"), resultMsg("c", transcript.Text{Text: "OK"}, img),
	}

	out := pruneMessages(msgs, &PruningConfig{KeepScreenshots: 2})

	if countImages(out) != 2 {
		t.Fatalf("expected 2 images kept, got %d", countImages(out))
	}
	first := out[2].Content[0].(transcript.ToolResult)
	if first.ToolUseID != "a" || len(first.Content) != 2 {
		t.Fatalf("expected result a to keep its shape, got %#v", first)
	}
	if txt := first.Content[1].(transcript.Text).Text; txt != defaultScreenshotPlaceholder {
		t.Errorf("expected placeholder, got %q", txt)
	}
	if _, ok := out[6].Content[0].(transcript.ToolResult).Content[1].(transcript.Image); !ok {
		t.Error("expected newest screenshot kept")
	}
}

func TestPruneMessages_SoftTrimsOldOutput(t *testing.T) {
	long := strings.Repeat("x", 100)
	msgs := []transcript.Message{
		transcript.UserText("go"),
		assistantMsg("1"), resultMsg("a", transcript.Text{Text: long}),
		assistantMsg("2"), resultMsg("b", transcript.Text{Text: long}),
	}

	out := pruneMessages(msgs, &PruningConfig{
		KeepLastAssistants: 1,
		SoftTrimMaxChars:   20,
		SoftTrimHeadChars:  5,
		SoftTrimTailChars:  5,
	})

	old := out[2].Content[0].(transcript.ToolResult).TextContent()
	if !strings.Contains(old, "[Tool result trimmed") || !strings.HasPrefix(old, "xxxxx\n...\nxxxxx") {
		t.Errorf("expected old output trimmed, got %q", old)
	}
	recent := out[4].Content[0].(transcript.ToolResult).TextContent()
	if recent != long {
		t.Errorf("expected recent output untouched, got %d chars", len(recent))
	}
}

func TestFindAssistantCutoff(t *testing.T) {
	msgs := []transcript.Message{transcript.UserText("a"), assistantMsg("1"), transcript.UserText("b"), assistantMsg("2")}
	if got := findAssistantCutoff(msgs, 1); got != 3 {
		t.Errorf("cutoff(1) = %d, want 3", got)
	}
	if got := findAssistantCutoff(msgs, 5); got != 0 {
		t.Errorf("cutoff(5) = %d, want 0", got)
	}
	if got := findAssistantCutoff(msgs, 0); got != len(msgs) {
		t.Errorf("cutoff(0) = %d, want %d", got, len(msgs))
	}
}

func TestTakeHeadTail(t *testing.T) {
	if got := takeHead("héllo", 2); got != "hé" {
		t.Errorf("takeHead = %q", got)
	}
	if got := takeTail("héllo", 3); got != "llo" {
		t.Errorf("takeTail = %q", got)
	}
}
