package desktop

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external program and returns its stdout.
type Runner interface {
	Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Xdotool drives an X11 display through the xdotool and ImageMagick
// "import" binaries.
type Xdotool struct {
	display string
	runner  Runner
	logger  *slog.Logger
}

// XdotoolOption configures an Xdotool driver.
type XdotoolOption func(*Xdotool)

// WithRunner replaces the process runner (used by tests).
func WithRunner(r Runner) XdotoolOption {
	return func(x *Xdotool) { x.runner = r }
}

// WithDriverLogger sets a custom logger.
func WithDriverLogger(l *slog.Logger) XdotoolOption {
	return func(x *Xdotool) { x.logger = l }
}

// NewXdotool creates a driver for the given X display (e.g. ":1").
// An empty display inherits $DISPLAY.
func NewXdotool(display string, opts ...XdotoolOption) *Xdotool {
	x := &Xdotool{
		display: display,
		runner:  execRunner{},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(x)
	}
	return x
}

func (x *Xdotool) env() []string {
	if x.display == "" {
		return nil
	}
	return []string{"DISPLAY=" + x.display}
}

func (x *Xdotool) xdotool(ctx context.Context, args ...string) error {
	_, err := x.runner.Run(ctx, x.env(), "xdotool", args...)
	return err
}

// Screenshot captures the root window as PNG.
func (x *Xdotool) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := x.runner.Run(ctx, x.env(), "import", "-window", "root", "png:-")
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("capture screen: empty image")
	}
	return out, nil
}

// TypeText types literal text with a short per-key delay.
func (x *Xdotool) TypeText(ctx context.Context, text string) error {
	return x.xdotool(ctx, "type", "--delay", "12", "--", text)
}

// PressKeys sends a single key or chord, e.g. "ctrl+c".
func (x *Xdotool) PressKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("no key given")
	}
	syms := make([]string, len(keys))
	for i, k := range keys {
		syms[i] = xdotoolKeysym(k)
	}
	return x.xdotool(ctx, "key", "--", strings.Join(syms, "+"))
}

// LeftClick clicks button 1 at the current pointer position.
func (x *Xdotool) LeftClick(ctx context.Context) error {
	return x.xdotool(ctx, "click", "1")
}

// MoveMouse moves the pointer to an absolute position.
func (x *Xdotool) MoveMouse(ctx context.Context, px, py int) error {
	return x.xdotool(ctx, "mousemove", "--sync", strconv.Itoa(px), strconv.Itoa(py))
}

// xdotoolKeys maps canonical key names to X keysyms.
var xdotoolKeys = map[string]string{
	"enter":       "Return",
	"tab":         "Tab",
	"esc":         "Escape",
	"backspace":   "BackSpace",
	"delete":      "Delete",
	"space":       "space",
	"up":          "Up",
	"down":        "Down",
	"left":        "Left",
	"right":       "Right",
	"home":        "Home",
	"end":         "End",
	"pageup":      "Page_Up",
	"pagedown":    "Page_Down",
	"insert":      "Insert",
	"ctrl":        "ctrl",
	"shift":       "shift",
	"alt":         "alt",
	"win":         "super",
	"command":     "super",
	"capslock":    "Caps_Lock",
	"printscreen": "Print",
	"+":           "plus",
	"-":           "minus",
	"_":           "underscore",
}

func xdotoolKeysym(key string) string {
	if sym, ok := xdotoolKeys[key]; ok {
		return sym
	}
	// f1..f24
	if len(key) > 1 && key[0] == 'f' {
		if _, err := strconv.Atoi(key[1:]); err == nil {
			return "F" + key[1:]
		}
	}
	return key
}
