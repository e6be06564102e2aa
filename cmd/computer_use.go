package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentbridge/internal/agent"
	"github.com/nextlevelbuilder/agentbridge/internal/archive"
	"github.com/nextlevelbuilder/agentbridge/internal/config"
	"github.com/nextlevelbuilder/agentbridge/internal/desktop"
	"github.com/nextlevelbuilder/agentbridge/internal/executor"
	"github.com/nextlevelbuilder/agentbridge/internal/providers/bedrock"
	"github.com/nextlevelbuilder/agentbridge/pkg/browser"
)

type computerUseFlags struct {
	prompt   string
	driver   string
	session  string
	maxTurns int
	noDelay  bool
}

func computerUseCmd() *cobra.Command {
	var f computerUseFlags

	cmd := &cobra.Command{
		Use:   "computer-use",
		Short: "Let the computer-use model operate the desktop",
		Long: `Start a conversation with the Bedrock computer-use model. The model asks for
screenshots, keystrokes, clicks and shell commands; each one is executed and
reported back until the model answers in text. Then you reply, or enter an
empty line or "exit" to stop.

Examples:
  agentbridge computer-use
  agentbridge computer-use -p "Open the calculator and add 2 and 3"
  agentbridge computer-use --driver browser --session demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComputerUse(f)
		},
	}

	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "first instruction (default: ask interactively)")
	cmd.Flags().StringVar(&f.driver, "driver", "", "display driver: xdotool or browser (default from config)")
	cmd.Flags().StringVarP(&f.session, "session", "s", "", "name screenshots are archived under")
	cmd.Flags().IntVar(&f.maxTurns, "max-turns", -1, "agent calls before giving up, 0 = unlimited (default from config)")
	cmd.Flags().BoolVar(&f.noDelay, "no-delay", false, "skip the pause before each agent call")
	return cmd
}

func runComputerUse(f computerUseFlags) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if f.driver != "" {
		cfg.Display.Driver = f.driver
	}
	if f.maxTurns >= 0 {
		cfg.Agent.MaxTurns = f.maxTurns
	}
	if f.noDelay {
		cfg.Agent.Delay = 0
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdown := initTelemetry(ctx, cfg)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()

	awsCfg, err := newAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	driver, closeDriver, err := newDriver(ctx, cfg.Display)
	if err != nil {
		return err
	}
	defer closeDriver()

	sink, err := newScreenshotSink(cfg.Screenshots, f.session, s3.NewFromConfig(awsCfg))
	if err != nil {
		return err
	}

	var shell *executor.Shell
	if !cfg.Executor.ShellDisabled {
		shell, err = executor.NewShell(executor.ShellConfig{
			Timeout:      cfg.Executor.ShellTimeout.Std(),
			MaxOutput:    cfg.Executor.MaxShellOutput,
			DenyPatterns: cfg.Executor.DenyPatterns,
			Scrub:        cfg.Executor.ScrubOutput,
		})
		if err != nil {
			return fmt.Errorf("shell: %w", err)
		}
	}

	size := desktop.Size{Width: cfg.Display.Width, Height: cfg.Display.Height}
	exec := executor.New(executor.Config{
		Driver:       driver,
		Shell:        shell,
		Screenshots:  executor.NewRecorder(sink, size, slog.Default()),
		ClickSettle:  cfg.Executor.ClickSettle.Std(),
		ReportErrors: cfg.Executor.ReportErrors,
		Logger:       slog.Default(),
	})

	client := bedrock.NewFromConfig(awsCfg, bedrock.Config{
		ModelID: cfg.Agent.ModelID,
		System:  cfg.Agent.SystemPrompt,
		Display: bedrock.Display{
			Width:  cfg.Display.Width,
			Height: cfg.Display.Height,
			Number: config.DisplayNumber(cfg.Display.Display),
		},
	}, slog.Default())

	con := newConsole()
	loop := agent.NewLoop(agent.LoopConfig{
		ID:              config.NormalizeSessionName(f.session),
		Client:          client,
		Executor:        exec,
		Console:         con,
		Delay:           loopDelay(cfg.Agent.Delay),
		MaxTurns:        cfg.Agent.MaxTurns,
		InjectionAction: cfg.Agent.InjectionAction,
		Pruning:         loopPruning(cfg.Agent.Pruning),
		Tracer:          tracer,
		Logger:          slog.Default(),
	})

	input := f.prompt
	if input == "" {
		line, err := con.ReadLine(ctx, "Instruction:")
		if err != nil || strings.TrimSpace(line) == "" {
			return nil
		}
		input = line
	}

	reason := loop.Run(ctx, input)
	slog.Info("computer-use finished", "reason", reason)

	switch reason {
	case agent.UserEnded, agent.Interrupted:
		return nil
	case agent.AgentUnavailable:
		con.Notice("The agent could not be reached. Check AWS credentials, region and model access, then try again.")
	case agent.TurnLimit:
		con.Notice(fmt.Sprintf("Stopped after %d agent calls.", cfg.Agent.MaxTurns))
	default:
		con.Notice("The agent stopped unexpectedly.")
	}
	return fmt.Errorf("computer-use ended: %s", reason)
}

// newDriver starts the configured display driver. The returned func
// releases it.
func newDriver(ctx context.Context, d config.DisplayConfig) (desktop.Driver, func(), error) {
	switch d.Driver {
	case "browser":
		m := browser.New(
			browser.WithHeadless(d.Headless),
			browser.WithViewport(d.Width, d.Height),
			browser.WithStartURL(d.StartURL),
			browser.WithLogger(slog.Default()),
		)
		if err := m.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("start browser: %w", err)
		}
		st := m.Status()
		slog.Info("browser display ready", "url", st.URL, "title", st.Title, "width", st.Width, "height", st.Height)
		return m, func() { _ = m.Close() }, nil
	default:
		return desktop.NewXdotool(d.Display, desktop.WithDriverLogger(slog.Default())), func() {}, nil
	}
}

// newScreenshotSink archives to the local directory, S3, both or neither.
func newScreenshotSink(c config.ScreenshotConfig, session string, client *s3.Client) (archive.Sink, error) {
	var sinks archive.Multi
	sub := ""
	if session != "" {
		sub = config.NormalizeSessionName(session)
	}

	if c.Dir != "" {
		dir := config.ExpandHome(c.Dir)
		if sub != "" {
			dir = filepath.Join(dir, sub)
		}
		ds, err := archive.NewDirSink(dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ds)
	}
	if c.S3Bucket != "" {
		prefix := c.S3Prefix
		if sub != "" {
			prefix = filepath.ToSlash(filepath.Join(prefix, sub))
		}
		sinks = append(sinks, archive.NewS3Sink(client, c.S3Bucket, prefix))
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}

// loopDelay maps the config convention (0 disables) to the loop's
// (0 = default, negative disables).
func loopDelay(d config.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d.Std()
}

func loopPruning(p *config.PruningConfig) *agent.PruningConfig {
	if p == nil {
		return nil
	}
	return &agent.PruningConfig{
		KeepScreenshots:    p.KeepScreenshots,
		KeepLastAssistants: p.KeepLastAssistants,
		SoftTrimMaxChars:   p.SoftTrimMaxChars,
	}
}
