package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeAsker struct {
	reply   string
	err     error
	text    string
	session string
	calls   int
}

func (f *fakeAsker) Ask(_ context.Context, text, sessionID string) (string, error) {
	f.calls++
	f.text = text
	f.session = sessionID
	return f.reply, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_AgentReply(t *testing.T) {
	asker := &fakeAsker{reply: "Moby Dick is popular."}
	h := NewHandler(asker, WithLogger(quietLogger()))

	resp := h.Handle(context.Background(), Event{
		InputTranscript: "  what books are trending?  ",
		SessionID:       "lex-1",
		Bot:             Bot{Name: "BookBot"},
	})

	if asker.text != "what books are trending?" {
		t.Errorf("expected trimmed transcript, got %q", asker.text)
	}
	if asker.session != "" {
		t.Errorf("expected fresh agent session, got %q", asker.session)
	}
	if resp.SessionState.Intent.State != StateFulfilled || resp.SessionState.Intent.Name != IntentName {
		t.Errorf("unexpected intent %+v", resp.SessionState.Intent)
	}
	if resp.SessionState.DialogAction == nil || resp.SessionState.DialogAction.Type != DialogClose {
		t.Errorf("expected Close dialog action, got %+v", resp.SessionState.DialogAction)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].Content != "Moby Dick is popular." || resp.Messages[0].ContentType != ContentTypeText {
		t.Errorf("unexpected messages %+v", resp.Messages)
	}
}

func TestHandle_AgentFailureStillFulfilled(t *testing.T) {
	h := NewHandler(&fakeAsker{err: errors.New("throttled")}, WithLogger(quietLogger()))
	resp := h.Handle(context.Background(), Event{InputTranscript: "hi"})

	if resp.SessionState.Intent.State != StateFulfilled {
		t.Errorf("expected Fulfilled, got %q", resp.SessionState.Intent.State)
	}
	if resp.Messages[0].Content != AgentUnavailableMessage {
		t.Errorf("unexpected content %q", resp.Messages[0].Content)
	}
}

func TestHandle_MissingTranscript(t *testing.T) {
	asker := &fakeAsker{reply: "unused"}
	h := NewHandler(asker, WithLogger(quietLogger()))
	resp := h.Handle(context.Background(), Event{InputTranscript: "   "})

	if asker.calls != 0 {
		t.Errorf("agent should not be called, got %d calls", asker.calls)
	}
	if resp.SessionState.Intent.State != StateFailed {
		t.Errorf("expected Failed, got %q", resp.SessionState.Intent.State)
	}
	if resp.Messages[0].Content != BadRequestMessage {
		t.Errorf("unexpected content %q", resp.Messages[0].Content)
	}
}

func TestHandle_LexSessions(t *testing.T) {
	asker := &fakeAsker{reply: "ok"}
	h := NewHandler(asker, WithLexSessions(), WithLogger(quietLogger()))
	h.Handle(context.Background(), Event{InputTranscript: "hi", SessionID: "lex-42"})
	if asker.session != "lex-42" {
		t.Errorf("expected lex session reused, got %q", asker.session)
	}
}

func TestResponseWireFormat(t *testing.T) {
	data, err := json.Marshal(closeWith(StateFulfilled, "hello"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"sessionState":{"dialogAction":{"type":"Close"},"intent":{"name":"FallbackIntent","state":"Fulfilled"}},"messages":[{"contentType":"PlainText","content":"hello"}]}`
	if string(data) != want {
		t.Errorf("unexpected wire format:\n got %s\nwant %s", data, want)
	}
}

func TestEventDecode(t *testing.T) {
	raw := `{"inputTranscript":"find me a book","sessionId":"s1","bot":{"name":"BookBot","id":"X"},"sessionState":{"intent":{"name":"FallbackIntent"}}}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.InputTranscript != "find me a book" || ev.Bot.Name != "BookBot" || ev.SessionState.Intent.Name != IntentName {
		t.Errorf("unexpected event %+v", ev)
	}
}
