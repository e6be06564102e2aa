package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-shellwords"
)

const (
	DefaultShellTimeout   = 60 * time.Second
	DefaultMaxShellOutput = 32 * 1024
)

// defaultDenyPatterns blocks commands that would take the host down with it.
var defaultDenyPatterns = []string{
	`\brm\s+-[a-z]*r[a-z]*f?[a-z]*\s+/(\s|$)`,
	`\bmkfs(\.\w+)?\b`,
	`\bdd\s+.*\bof=/dev/`,
	`\b(shutdown|reboot|halt|poweroff)\b`,
	`:\(\)\s*\{\s*:\|:&\s*\};:`,
}

// ShellConfig configures a Shell.
type ShellConfig struct {
	Timeout      time.Duration
	MaxOutput    int
	Dir          string
	Env          []string
	DenyPatterns []string // nil = defaults, empty slice = none
	Scrub        bool
}

// Shell runs shell_command actions through "sh -c".
type Shell struct {
	timeout   time.Duration
	maxOutput int
	dir       string
	env       []string
	deny      []*regexp.Regexp
	scrub     bool
}

// NewShell compiles the deny list and applies defaults.
func NewShell(cfg ShellConfig) (*Shell, error) {
	s := &Shell{
		timeout:   cfg.Timeout,
		maxOutput: cfg.MaxOutput,
		dir:       cfg.Dir,
		env:       cfg.Env,
		scrub:     cfg.Scrub,
	}
	if s.timeout <= 0 {
		s.timeout = DefaultShellTimeout
	}
	if s.maxOutput <= 0 {
		s.maxOutput = DefaultMaxShellOutput
	}

	patterns := cfg.DenyPatterns
	if patterns == nil {
		patterns = defaultDenyPatterns
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", p, err)
		}
		s.deny = append(s.deny, re)
	}
	return s, nil
}

// ErrDenied is returned for commands matching a deny pattern.
var ErrDenied = errors.New("command denied by policy")

// Run executes command and returns its combined stdout/stderr. A non-zero
// exit still returns the captured output alongside the error.
func (s *Shell) Run(ctx context.Context, command string) (string, error) {
	if err := s.check(command); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = s.dir
	cmd.WaitDelay = time.Second
	if len(s.env) > 0 {
		cmd.Env = append(cmd.Environ(), s.env...)
	}

	out, err := cmd.CombinedOutput()
	output := s.clean(string(out))

	if ctx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("command timed out after %s", s.timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, fmt.Errorf("command exited with code %d", exitErr.ExitCode())
		}
		return output, fmt.Errorf("run command: %w", err)
	}
	return output, nil
}

// check matches the command against the deny list, both raw and with shell
// quoting removed so `"rm" -rf /` is caught as well.
func (s *Shell) check(command string) error {
	candidates := []string{command}
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false
	if words, err := parser.Parse(command); err == nil && len(words) > 0 {
		candidates = append(candidates, strings.Join(words, " "))
	}
	for _, c := range candidates {
		for _, re := range s.deny {
			if re.MatchString(c) {
				return fmt.Errorf("%w: matches %q", ErrDenied, re.String())
			}
		}
	}
	return nil
}

func (s *Shell) clean(out string) string {
	if s.scrub {
		out = ScrubCredentials(out)
	}
	if len(out) > s.maxOutput {
		cut := s.maxOutput
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + fmt.Sprintf("\n... [truncated, %d bytes total]", len(out))
	}
	return out
}
