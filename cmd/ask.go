package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentbridge/internal/providers/bedrock"
)

func askCmd() *cobra.Command {
	var (
		session string
		trace   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Send one question to the Bedrock agent behind the chat bot",
		Example: `  agentbridge ask "What are the top books right now?"
  agentbridge ask -s my-session "Book a table for two at 7pm tomorrow"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(strings.Join(args, " "), session, trace)
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "agent session id (default: new session)")
	cmd.Flags().BoolVar(&trace, "trace", false, "request agent traces (logged at debug level)")
	return cmd
}

func runAsk(question, session string, trace bool) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.BedrockAgent.AgentID == "" || cfg.BedrockAgent.AliasID == "" {
		return fmt.Errorf("bedrock agent not configured: set BEDROCK_AGENT_ID and BEDROCK_AGENT_ALIAS_ID")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	awsCfg, err := newAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	runtime := bedrock.NewAgentRuntimeFromConfig(awsCfg, bedrock.AgentConfig{
		AgentID:     cfg.BedrockAgent.AgentID,
		AliasID:     cfg.BedrockAgent.AliasID,
		EnableTrace: trace || cfg.BedrockAgent.EnableTrace,
	}, slog.Default())

	reply, err := runtime.Ask(ctx, question, session)
	if err != nil {
		slog.Debug("agent error", "error", err)
		return fmt.Errorf("%s", formatAgentError(err))
	}
	fmt.Println(reply)
	return nil
}
