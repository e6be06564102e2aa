// Package fallback answers Lex V2 fallback-intent events with a Bedrock agent.
package fallback

import (
	"context"
	"log/slog"
	"strings"
)

// Intent names and states used in Lex replies.
const (
	IntentName      = "FallbackIntent"
	StateFulfilled  = "Fulfilled"
	StateFailed     = "Failed"
	DialogClose     = "Close"
	ContentTypeText = "PlainText"
)

// Apologies sent when the agent cannot answer.
const (
	AgentUnavailableMessage = "I apologize, but I'm having trouble accessing the book information right now."
	BadRequestMessage       = "I apologize, but I'm having trouble processing your request right now."
)

// Event is the subset of a Lex V2 code-hook event the handler reads.
type Event struct {
	InputTranscript string       `json:"inputTranscript"`
	SessionID       string       `json:"sessionId,omitempty"`
	Bot             Bot          `json:"bot"`
	SessionState    SessionState `json:"sessionState"`
}

type Bot struct {
	Name string `json:"name"`
}

type SessionState struct {
	DialogAction *DialogAction `json:"dialogAction,omitempty"`
	Intent       Intent        `json:"intent"`
}

type DialogAction struct {
	Type string `json:"type"`
}

type Intent struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// Message is one Lex reply message.
type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Response closes the dialog with one plain-text message.
type Response struct {
	SessionState SessionState `json:"sessionState"`
	Messages     []Message    `json:"messages"`
}

// Asker sends one utterance to an agent. An empty sessionID starts a new session.
type Asker interface {
	Ask(ctx context.Context, text, sessionID string) (string, error)
}

// Handler turns fallback events into agent questions.
type Handler struct {
	asker        Asker
	keepSessions bool
	logger       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLexSessions reuses the Lex session id as the agent session, so a
// conversation keeps its agent memory. By default every event gets a fresh
// agent session.
func WithLexSessions() Option {
	return func(h *Handler) { h.keepSessions = true }
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a Handler.
func NewHandler(asker Asker, opts ...Option) *Handler {
	h := &Handler{asker: asker, logger: slog.Default()}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Handle answers ev. It never fails: problems become an apology message.
// An agent failure still fulfils the intent, while an event without a
// transcript fails it.
func (h *Handler) Handle(ctx context.Context, ev Event) Response {
	h.logger.Debug("fallback event", "bot", ev.Bot.Name, "intent", ev.SessionState.Intent.Name, "session_id", ev.SessionID)

	text := strings.TrimSpace(ev.InputTranscript)
	if text == "" {
		h.logger.Warn("fallback event without transcript", "bot", ev.Bot.Name)
		return closeWith(StateFailed, BadRequestMessage)
	}

	session := ""
	if h.keepSessions {
		session = ev.SessionID
	}

	reply, err := h.asker.Ask(ctx, text, session)
	if err != nil {
		h.logger.Error("bedrock agent invocation failed", "bot", ev.Bot.Name, "error", err)
		reply = AgentUnavailableMessage
	}
	return closeWith(StateFulfilled, reply)
}

func closeWith(state, content string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction: &DialogAction{Type: DialogClose},
			Intent:       Intent{Name: IntentName, State: state},
		},
		Messages: []Message{{ContentType: ContentTypeText, Content: content}},
	}
}
