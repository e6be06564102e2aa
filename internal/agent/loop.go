package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/agentbridge/internal/action"
	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

// DefaultDelay is the pause before every agent call. It keeps a session
// under the runtime's request quota.
const DefaultDelay = 30 * time.Second

const (
	operatorPrompt = "Your response (or type 'exit' to end): "
	blockedNotice  = "That message looks like a prompt injection attempt and was not sent. Please rephrase."
	emptyReplyText = "(no response)"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	ID       string
	Client   Client
	Executor Executor
	Console  Console

	// Delay before each agent call. 0 uses DefaultDelay, negative disables.
	Delay    time.Duration
	MaxTurns int // agent calls per Run, 0 = unlimited

	InputGuard      *InputGuard // nil = default patterns
	InjectionAction string      // off, log, warn (default) or block

	Pruning *PruningConfig // nil = send the transcript unchanged
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// Loop alternates agent calls with action execution and operator prompts
// until a TerminationReason is reached. A Loop owns one transcript and is
// not safe for concurrent Runs.
type Loop struct {
	id              string
	client          Client
	executor        Executor
	console         Console
	delay           time.Duration
	maxTurns        int
	inputGuard      *InputGuard
	injectionAction GuardAction
	pruning         *PruningConfig
	tracer          trace.Tracer
	logger          *slog.Logger
	transcript      *transcript.Transcript
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewLoop creates a Loop. An unknown injection action falls back to warn.
func NewLoop(cfg LoopConfig) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ID != "" {
		logger = logger.With("loop", cfg.ID)
	}

	delay := cfg.Delay
	if delay == 0 {
		delay = DefaultDelay
	}

	injectionAction, err := ParseGuardAction(cfg.InjectionAction)
	if err != nil {
		logger.Warn("invalid injection action, using warn", "value", cfg.InjectionAction)
		injectionAction = GuardWarn
	}
	guard := cfg.InputGuard
	if injectionAction == GuardOff {
		guard = nil
	} else if guard == nil {
		guard = NewInputGuard()
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/nextlevelbuilder/agentbridge/internal/agent")
	}

	return &Loop{
		id:              cfg.ID,
		client:          cfg.Client,
		executor:        cfg.Executor,
		console:         cfg.Console,
		delay:           delay,
		maxTurns:        cfg.MaxTurns,
		inputGuard:      guard,
		injectionAction: injectionAction,
		pruning:         cfg.Pruning,
		tracer:          tracer,
		logger:          logger,
		transcript:      transcript.New(),
		sleep:           sleepCtx,
	}
}

// Transcript returns a copy of the conversation so far.
func (l *Loop) Transcript() []transcript.Message {
	return l.transcript.Messages()
}

// Run drives the conversation starting from initialInput.
func (l *Loop) Run(ctx context.Context, initialInput string) TerminationReason {
	input := initialInput
	if !l.admit(input) {
		line, ok := l.readOperator(ctx)
		if !ok {
			return l.stopReading(ctx)
		}
		input = line
	}
	if err := l.transcript.Append(transcript.UserText(input)); err != nil {
		l.logger.Error("initial input rejected", "error", err)
		return UserEnded
	}

	calls := 0
	for {
		if l.maxTurns > 0 && calls >= l.maxTurns {
			l.logger.Warn("turn limit reached", "max_turns", l.maxTurns)
			return TurnLimit
		}
		if err := l.sleep(ctx, l.delay); err != nil {
			l.logger.Info("interrupted while waiting to call agent")
			return Interrupted
		}
		calls++

		turn, err := l.send(ctx, calls)
		if err != nil {
			if ctx.Err() != nil {
				return Interrupted
			}
			l.logger.Error("failed to get a response from the agent", "turn", calls, "error", err, "throttled", isThrottled(err))
			return AgentUnavailable
		}

		l.logger.Info("agent turn", "turn", calls, "stop_reason", turn.StopReason, "blocks", len(turn.Content))

		switch turn.StopReason {
		case StopToolUse:
			if len(transcript.ToolUses(turn.Content)) == 0 {
				l.logger.Error("tool_use turn without tool uses", "turn", calls)
				return UnexpectedStopReason
			}
			results := l.runActions(ctx, turn.Content)
			if err := transcript.ValidateToolResults(turn.Content, results); err != nil {
				l.logger.Error("tool results out of step", "error", err)
				return UnexpectedStopReason
			}
			_ = l.transcript.Append(transcript.Message{Role: transcript.RoleAssistant, Content: turn.Content})
			_ = l.transcript.Append(transcript.Message{Role: transcript.RoleUser, Content: transcript.ResultBlocks(results)})

		case StopEndTurn:
			reply := turn.Content
			text := transcript.JoinText(reply)
			if text == "" && len(transcript.ToolUses(reply)) == 0 {
				// Roles must alternate, so an empty reply still takes its turn.
				l.logger.Warn("agent ended its turn without content", "turn", calls)
				reply = []transcript.Block{transcript.Text{Text: emptyReplyText}}
			}
			if err := l.transcript.Append(transcript.Message{Role: transcript.RoleAssistant, Content: reply}); err != nil {
				l.logger.Error("agent reply not recorded", "error", err)
				return UnexpectedStopReason
			}
			if text != "" {
				l.console.Show(text)
			}

			line, ok := l.readOperator(ctx)
			if !ok {
				return l.stopReading(ctx)
			}
			_ = l.transcript.Append(transcript.UserText(line))

		default:
			l.logger.Error("unexpected stop reason", "stop_reason", turn.StopReason)
			return UnexpectedStopReason
		}
	}
}

// send calls the agent with the transcript, pruned when configured.
func (l *Loop) send(ctx context.Context, turn int) (*Turn, error) {
	msgs := l.transcript.Messages()
	if l.pruning != nil {
		msgs = pruneMessages(msgs, l.pruning)
	}

	ctx, span := l.tracer.Start(ctx, "agent.send", trace.WithAttributes(
		attribute.Int("agent.turn", turn),
		attribute.Int("agent.messages", len(msgs)),
	))
	defer span.End()

	reply, err := l.client.Send(ctx, msgs)
	if err == nil && reply == nil {
		err = errors.New("agent returned no turn")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("agent.stop_reason", string(reply.StopReason)))
	return reply, nil
}

// runActions executes every ToolUse of content in order, one result each.
func (l *Loop) runActions(ctx context.Context, content []transcript.Block) []transcript.ToolResult {
	uses := transcript.ToolUses(content)
	results := make([]transcript.ToolResult, 0, len(uses))
	for _, tu := range uses {
		req := action.FromToolUse(tu)

		actx, span := l.tracer.Start(ctx, "action.execute", trace.WithAttributes(
			attribute.String("action.kind", string(req.Kind())),
			attribute.String("action.tool_use_id", tu.ID),
		))
		res := l.executor.Execute(actx, req)
		if res.IsError() {
			span.SetStatus(codes.Error, res.TextContent())
		}
		span.End()

		// The agent pairs results by id; never trust the executor to copy it.
		res.ToolUseID = tu.ID
		results = append(results, res)
	}
	return results
}

// readOperator prompts until the operator gives usable input. ok is false
// when the conversation should end.
func (l *Loop) readOperator(ctx context.Context) (string, bool) {
	for {
		line, err := l.console.ReadLine(ctx, operatorPrompt)
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Info("operator input closed", "error", err)
			}
			return "", false
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "exit") {
			return "", false
		}
		if l.admit(line) {
			return line, true
		}
	}
}

// admit runs the input guard over operator text and reports whether it may
// join the transcript. Only the block action refuses input.
func (l *Loop) admit(text string) bool {
	if l.inputGuard == nil {
		return true
	}
	matches := l.inputGuard.Scan(text)
	if len(matches) == 0 {
		return true
	}

	switch l.injectionAction {
	case GuardLog:
		l.logger.Info("possible prompt injection in operator input", "patterns", matches)
	case GuardBlock:
		l.logger.Warn("operator input blocked", "patterns", matches)
		l.console.Show(blockedNotice)
		return false
	default:
		l.logger.Warn("possible prompt injection in operator input", "patterns", matches)
	}
	return true
}

func (l *Loop) stopReading(ctx context.Context) TerminationReason {
	if ctx.Err() != nil {
		return Interrupted
	}
	return UserEnded
}

// isThrottled reports whether err carries a throttling classification.
func isThrottled(err error) bool {
	var t interface{ Throttled() bool }
	return errors.As(err, &t) && t.Throttled()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sleep: %w", ctx.Err())
	}
}
