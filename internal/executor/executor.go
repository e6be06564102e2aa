// Package executor performs desktop actions requested by the agent and turns
// their outcome into ToolResults. Every request yields exactly one result.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/agentbridge/internal/action"
	"github.com/nextlevelbuilder/agentbridge/internal/desktop"
	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

// DefaultClickSettle is the pause after a click that lets the UI catch up.
const DefaultClickSettle = 250 * time.Millisecond

const okText = "OK"

// Config configures an Executor.
type Config struct {
	Driver      desktop.Driver
	Shell       *Shell    // nil disables shell_command
	Screenshots *Recorder // nil captures without archiving
	ClickSettle time.Duration

	// ReportErrors marks failed actions with status=error. When false every
	// result is reported as a plain success, whatever happened.
	ReportErrors bool
	Logger       *slog.Logger
}

// Executor dispatches action requests to the desktop driver and shell.
type Executor struct {
	driver       desktop.Driver
	shell        *Shell
	shots        *Recorder
	settle       time.Duration
	reportErrors bool
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration)
}

// New creates an Executor.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	settle := cfg.ClickSettle
	if settle <= 0 {
		settle = DefaultClickSettle
	}
	shots := cfg.Screenshots
	if shots == nil {
		shots = NewRecorder(nil, desktop.Size{}, logger)
	}
	return &Executor{
		driver:       cfg.Driver,
		shell:        cfg.Shell,
		shots:        shots,
		settle:       settle,
		reportErrors: cfg.ReportErrors,
		logger:       logger,
		sleep:        sleepCtx,
	}
}

// Execute runs one request synchronously and never panics past this point.
func (e *Executor) Execute(ctx context.Context, req action.Request) (result transcript.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked", "kind", req.Kind(), "tool_use_id", req.CorrelationID, "panic", r)
			result = e.fail(req, fmt.Errorf("action panicked: %v", r), "")
		}
	}()

	start := time.Now()
	e.logger.Info("executing action", "kind", req.Kind(), "tool_use_id", req.CorrelationID)

	result = e.dispatch(ctx, req)

	e.logger.Debug("action executed",
		"kind", req.Kind(),
		"tool_use_id", req.CorrelationID,
		"duration_ms", time.Since(start).Milliseconds(),
		"is_error", result.IsError(),
	)
	return result
}

func (e *Executor) dispatch(ctx context.Context, req action.Request) transcript.ToolResult {
	if e.driver == nil {
		switch req.Action.(type) {
		case action.Screenshot, action.TypeText, action.KeyPress, action.LeftClick, action.MouseMove:
			return e.fail(req, fmt.Errorf("no desktop driver configured"), "")
		}
	}

	switch a := req.Action.(type) {
	case action.Screenshot:
		img, err := e.shots.Capture(ctx, e.driver)
		if err != nil {
			return e.fail(req, err, "")
		}
		return transcript.ToolResult{
			ToolUseID: req.CorrelationID,
			Content:   []transcript.ResultContent{transcript.Text{Text: okText}, transcript.Image{Format: "png", Bytes: img}},
			Status:    transcript.StatusSuccess,
		}

	case action.TypeText:
		if err := e.driver.TypeText(ctx, a.Text); err != nil {
			return e.fail(req, err, "")
		}
		return e.ok(req)

	case action.KeyPress:
		e.logger.Debug("pressing keys", "raw", a.Raw, "keys", a.Keys)
		if err := e.driver.PressKeys(ctx, a.Keys); err != nil {
			return e.fail(req, err, "")
		}
		return e.ok(req)

	case action.LeftClick:
		if err := e.driver.LeftClick(ctx); err != nil {
			return e.fail(req, err, "")
		}
		e.sleep(ctx, e.settle)
		return e.ok(req)

	case action.MouseMove:
		if err := e.driver.MoveMouse(ctx, a.X, a.Y); err != nil {
			return e.fail(req, err, "")
		}
		return e.ok(req)

	case action.ShellCommand:
		if e.shell == nil {
			return e.fail(req, fmt.Errorf("shell commands are disabled"), "")
		}
		out, err := e.shell.Run(ctx, a.Command)
		if err != nil {
			return e.fail(req, err, out)
		}
		return e.text(req, out, transcript.StatusSuccess)

	case action.Invalid:
		return e.fail(req, fmt.Errorf("%s: %s", a.Name, a.Reason), "")

	case action.Unknown:
		// Keep the conversation going: the agent gets a result for every
		// tool use even when we cannot act on it.
		e.logger.Warn("unsupported action received", "action", a.Name, "tool_use_id", req.CorrelationID)
		return e.ok(req)

	default:
		e.logger.Warn("unsupported action received", "tool_use_id", req.CorrelationID)
		return e.ok(req)
	}
}

func (e *Executor) ok(req action.Request) transcript.ToolResult {
	return e.text(req, okText, transcript.StatusSuccess)
}

func (e *Executor) text(req action.Request, text string, status transcript.Status) transcript.ToolResult {
	if !e.reportErrors && status == transcript.StatusSuccess {
		status = transcript.StatusUnset
	}
	return transcript.ToolResult{
		ToolUseID: req.CorrelationID,
		Content:   []transcript.ResultContent{transcript.Text{Text: text}},
		Status:    status,
	}
}

// fail reports an action failure. Captured output, if any, is kept ahead of
// the error text so the agent sees what the action produced.
func (e *Executor) fail(req action.Request, err error, output string) transcript.ToolResult {
	e.logger.Warn("action failed", "kind", req.Kind(), "tool_use_id", req.CorrelationID, "error", err)

	if !e.reportErrors {
		if output == "" {
			output = okText
		}
		return e.text(req, output, transcript.StatusSuccess)
	}

	var content []transcript.ResultContent
	if output != "" {
		content = append(content, transcript.Text{Text: output})
	}
	content = append(content, transcript.Text{Text: "error: " + err.Error()})
	return transcript.ToolResult{
		ToolUseID: req.CorrelationID,
		Content:   content,
		Status:    transcript.StatusError,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
