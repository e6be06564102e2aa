package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/google/uuid"
)

// InvokeAgentAPI is the subset of the bedrockagentruntime client used here.
type InvokeAgentAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// AgentConfig identifies a deployed Bedrock agent.
type AgentConfig struct {
	AgentID     string
	AliasID     string
	EnableTrace bool
}

// eventReader is the completion stream of one InvokeAgent call.
type eventReader interface {
	Events() <-chan agenttypes.ResponseStream
	Close() error
	Err() error
}

// AgentRuntime sends utterances to a Bedrock agent and collects the reply.
type AgentRuntime struct {
	cfg    AgentConfig
	open   func(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (eventReader, error)
	logger *slog.Logger
}

// NewAgentRuntimeFromConfig builds an AgentRuntime on the SDK client for awsCfg.
func NewAgentRuntimeFromConfig(awsCfg aws.Config, cfg AgentConfig, logger *slog.Logger) *AgentRuntime {
	return NewAgentRuntime(bedrockagentruntime.NewFromConfig(awsCfg), cfg, logger)
}

// NewAgentRuntime creates an AgentRuntime on any InvokeAgentAPI.
func NewAgentRuntime(api InvokeAgentAPI, cfg AgentConfig, logger *slog.Logger) *AgentRuntime {
	return newAgentRuntime(func(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		out, err := api.InvokeAgent(ctx, in)
		if err != nil {
			return nil, err
		}
		return out.GetStream(), nil
	}, cfg, logger)
}

func newAgentRuntime(open func(context.Context, *bedrockagentruntime.InvokeAgentInput) (eventReader, error), cfg AgentConfig, logger *slog.Logger) *AgentRuntime {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentRuntime{cfg: cfg, open: open, logger: logger}
}

// Ask sends text in a session and returns the concatenated completion.
// An empty sessionID starts a fresh session.
func (a *AgentRuntime) Ask(ctx context.Context, text, sessionID string) (string, error) {
	if a.cfg.AgentID == "" || a.cfg.AliasID == "" {
		return "", fmt.Errorf("bedrock agent id and alias id are required")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	in := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(a.cfg.AgentID),
		AgentAliasId: aws.String(a.cfg.AliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(text),
		EnableTrace:  aws.Bool(a.cfg.EnableTrace),
	}

	a.logger.Info("invoking bedrock agent", "agent_id", a.cfg.AgentID, "alias_id", a.cfg.AliasID, "session_id", sessionID)

	stream, err := a.open(ctx, in)
	if err != nil {
		return "", classify("invoke agent", err)
	}
	defer stream.Close()

	var sb strings.Builder
	citations := 0
	for ev := range stream.Events() {
		switch v := ev.(type) {
		case *agenttypes.ResponseStreamMemberChunk:
			sb.Write(v.Value.Bytes)
			if v.Value.Attribution != nil {
				citations += len(v.Value.Attribution.Citations)
			}
		case *agenttypes.ResponseStreamMemberTrace:
			a.logger.Debug("agent trace", "session_id", sessionID, "kind", traceKind(v.Value.Trace), "agent_version", aws.ToString(v.Value.AgentVersion))
		default:
			a.logger.Debug("ignoring agent event", "type", fmt.Sprintf("%T", ev))
		}
	}
	if err := stream.Err(); err != nil {
		return "", classify("invoke agent stream", err)
	}

	a.logger.Info("agent replied", "session_id", sessionID, "chars", sb.Len(), "citations", citations)
	return sb.String(), nil
}

// traceKind names the agent step a trace event reports on.
func traceKind(t agenttypes.Trace) string {
	switch v := t.(type) {
	case *agenttypes.TraceMemberGuardrailTrace:
		// Pre-guardrail traces assess the input, post-guardrail ones the reply.
		if strings.Contains(aws.ToString(v.Value.TraceId), "guardrail-post") || len(v.Value.OutputAssessments) > 0 {
			return "postGuardrail"
		}
		return "preGuardrail"
	case *agenttypes.TraceMemberPreProcessingTrace:
		return "preProcessing"
	case *agenttypes.TraceMemberOrchestrationTrace:
		return "orchestration"
	case *agenttypes.TraceMemberPostProcessingTrace:
		return "postProcessing"
	case *agenttypes.TraceMemberFailureTrace:
		return "failure"
	case *agenttypes.TraceMemberCustomOrchestrationTrace:
		return "customOrchestration"
	case *agenttypes.TraceMemberRoutingClassifierTrace:
		return "routingClassifier"
	case nil:
		return "empty"
	default:
		return "unknown"
	}
}
