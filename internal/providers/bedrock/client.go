// Package bedrock talks to Amazon Bedrock: the Converse API drives the
// computer-use loop and InvokeAgent answers chat-bot utterances.
package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/nextlevelbuilder/agentbridge/internal/agent"
	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

const (
	DefaultModelID  = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"
	DefaultToolType = "computer_20241022"
	DefaultBeta     = "computer-use-2024-10-22"
)

// ConverseAPI is the subset of the bedrockruntime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Display is the screen geometry announced to the model.
type Display struct {
	Width  int
	Height int
	Number int
}

// Config configures a Converse client.
type Config struct {
	ModelID  string
	System   string // empty = DefaultSystemPrompt()
	Display  Display
	ToolType string
	Beta     []string
}

// Client is an agent.Client backed by Bedrock Converse.
type Client struct {
	api        ConverseAPI
	modelID    string
	system     []types.SystemContentBlock
	toolConfig *types.ToolConfiguration
	additional document.Interface
	logger     *slog.Logger
}

// DefaultSystemPrompt describes the host to the model.
func DefaultSystemPrompt() string {
	return "You are a helpful AI agent with access to computer control.\n" +
		"Always think step by step.\n" +
		"ENVIRONMENT:\n" +
		"1. " + runtime.GOOS
}

// NewFromConfig builds a Client on the SDK client for awsCfg. Requests are
// tried once: the loop owns pacing, not the SDK.
func NewFromConfig(awsCfg aws.Config, cfg Config, logger *slog.Logger) *Client {
	api := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.Retryer = retry.AddWithMaxAttempts(retry.NewStandard(), 1)
	})
	return New(api, cfg, logger)
}

// New creates a Client on any ConverseAPI.
func New(api ConverseAPI, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.System == "" {
		cfg.System = DefaultSystemPrompt()
	}
	return &Client{
		api:        api,
		modelID:    cfg.ModelID,
		system:     []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: cfg.System}},
		toolConfig: toolConfiguration(),
		additional: document.NewLazyDocument(additionalFields(cfg)),
		logger:     logger,
	}
}

// Send implements agent.Client.
func (c *Client) Send(ctx context.Context, messages []transcript.Message) (*agent.Turn, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId:                      aws.String(c.modelID),
		Messages:                     toSDKMessages(messages),
		System:                       c.system,
		ToolConfig:                   c.toolConfig,
		AdditionalModelRequestFields: c.additional,
	}

	start := time.Now()
	out, err := c.api.Converse(ctx, in)
	if err != nil {
		return nil, classify("converse", err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("converse: unexpected output %T", out.Output)
	}
	content, err := fromSDKContent(msg.Value.Content)
	if err != nil {
		return nil, fmt.Errorf("converse: %w", err)
	}

	attrs := []any{
		"model", c.modelID,
		"stop_reason", out.StopReason,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if out.Usage != nil {
		attrs = append(attrs, "input_tokens", aws.ToInt32(out.Usage.InputTokens), "output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	c.logger.Debug("converse response", attrs...)

	return &agent.Turn{StopReason: agent.StopReason(out.StopReason), Content: content}, nil
}
