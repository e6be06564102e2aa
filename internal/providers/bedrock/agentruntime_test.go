package bedrock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
)

type fakeStream struct {
	events []agenttypes.ResponseStream
	err    error
	closed bool
}

func (s *fakeStream) Events() <-chan agenttypes.ResponseStream {
	ch := make(chan agenttypes.ResponseStream, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch
}
func (s *fakeStream) Close() error { s.closed = true; return nil }
func (s *fakeStream) Err() error   { return s.err }

func chunk(text string) agenttypes.ResponseStream {
	return &agenttypes.ResponseStreamMemberChunk{Value: agenttypes.PayloadPart{Bytes: []byte(text)}}
}

func TestAsk_ConcatenatesChunks(t *testing.T) {
	stream := &fakeStream{events: []agenttypes.ResponseStream{
		chunk("I found "),
		&agenttypes.ResponseStreamMemberTrace{Value: agenttypes.TracePart{}},
		chunk("3 restaurants."),
	}}
	var in *bedrockagentruntime.InvokeAgentInput
	rt := newAgentRuntime(func(_ context.Context, i *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		in = i
		return stream, nil
	}, AgentConfig{AgentID: "AG", AliasID: "AL", EnableTrace: true}, nil)

	got, err := rt.Ask(context.Background(), "find sushi", "")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "I found 3 restaurants." {
		t.Errorf("unexpected completion %q", got)
	}
	if !stream.closed {
		t.Error("expected stream closed")
	}
	if aws.ToString(in.AgentId) != "AG" || aws.ToString(in.AgentAliasId) != "AL" {
		t.Errorf("unexpected agent ids %+v", in)
	}
	if aws.ToString(in.SessionId) == "" {
		t.Error("expected a fresh session id")
	}
	if !aws.ToBool(in.EnableTrace) || aws.ToString(in.InputText) != "find sushi" {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestAsk_LogsTraceKindsAndCitations(t *testing.T) {
	cited := &agenttypes.ResponseStreamMemberChunk{Value: agenttypes.PayloadPart{
		Bytes:       []byte("Open until 10pm."),
		Attribution: &agenttypes.Attribution{Citations: []agenttypes.Citation{{}, {}}},
	}}
	stream := &fakeStream{events: []agenttypes.ResponseStream{
		&agenttypes.ResponseStreamMemberTrace{Value: agenttypes.TracePart{Trace: &agenttypes.TraceMemberOrchestrationTrace{}}},
		cited,
	}}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := newAgentRuntime(func(context.Context, *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		return stream, nil
	}, AgentConfig{AgentID: "AG", AliasID: "AL", EnableTrace: true}, logger)

	got, err := rt.Ask(context.Background(), "hours?", "s1")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "Open until 10pm." {
		t.Errorf("unexpected completion %q", got)
	}
	out := buf.String()
	if !strings.Contains(out, "kind=orchestration") {
		t.Errorf("expected trace kind logged, got:\n%s", out)
	}
	if !strings.Contains(out, "citations=2") {
		t.Errorf("expected citation count logged, got:\n%s", out)
	}
}

func TestTraceKind(t *testing.T) {
	tests := []struct {
		name  string
		trace agenttypes.Trace
		want  string
	}{
		{"pre guardrail", &agenttypes.TraceMemberGuardrailTrace{Value: agenttypes.GuardrailTrace{
			TraceId:          aws.String("abc-guardrail-pre-0"),
			InputAssessments: []agenttypes.GuardrailAssessment{{}},
		}}, "preGuardrail"},
		{"post guardrail by id", &agenttypes.TraceMemberGuardrailTrace{Value: agenttypes.GuardrailTrace{
			TraceId: aws.String("abc-guardrail-post-0"),
		}}, "postGuardrail"},
		{"post guardrail by assessment", &agenttypes.TraceMemberGuardrailTrace{Value: agenttypes.GuardrailTrace{
			OutputAssessments: []agenttypes.GuardrailAssessment{{}},
		}}, "postGuardrail"},
		{"pre processing", &agenttypes.TraceMemberPreProcessingTrace{}, "preProcessing"},
		{"orchestration", &agenttypes.TraceMemberOrchestrationTrace{}, "orchestration"},
		{"post processing", &agenttypes.TraceMemberPostProcessingTrace{}, "postProcessing"},
		{"failure", &agenttypes.TraceMemberFailureTrace{}, "failure"},
		{"nil", nil, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := traceKind(tt.trace); got != tt.want {
				t.Errorf("traceKind = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAsk_KeepsSessionID(t *testing.T) {
	var session string
	rt := newAgentRuntime(func(_ context.Context, i *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		session = aws.ToString(i.SessionId)
		return &fakeStream{}, nil
	}, AgentConfig{AgentID: "AG", AliasID: "AL"}, nil)

	if _, err := rt.Ask(context.Background(), "hi", "lex-session-1"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if session != "lex-session-1" {
		t.Errorf("expected session kept, got %q", session)
	}
}

func TestAsk_Errors(t *testing.T) {
	rt := newAgentRuntime(nil, AgentConfig{}, nil)
	if _, err := rt.Ask(context.Background(), "hi", ""); err == nil {
		t.Error("expected error without agent ids")
	}

	rt = newAgentRuntime(func(context.Context, *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		return nil, &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	}, AgentConfig{AgentID: "AG", AliasID: "AL"}, nil)
	_, err := rt.Ask(context.Background(), "hi", "")
	if !IsThrottling(err) {
		t.Errorf("expected throttling, got %v", err)
	}

	rt = newAgentRuntime(func(context.Context, *bedrockagentruntime.InvokeAgentInput) (eventReader, error) {
		return &fakeStream{events: []agenttypes.ResponseStream{chunk("partial")}, err: errors.New("stream reset")}, nil
	}, AgentConfig{AgentID: "AG", AliasID: "AL"}, nil)
	if _, err := rt.Ask(context.Background(), "hi", ""); err == nil {
		t.Error("expected stream error")
	}
}

func TestIsThrottling(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic throttling", &smithy.GenericAPIError{Code: "ThrottlingException"}, true},
		{"too many requests", &smithy.GenericAPIError{Code: "TooManyRequestsException"}, true},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException"}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsThrottling(tt.err); got != tt.want {
				t.Errorf("IsThrottling = %v, want %v", got, tt.want)
			}
		})
	}
}
