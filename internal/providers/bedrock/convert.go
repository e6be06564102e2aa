package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/nextlevelbuilder/agentbridge/internal/transcript"
)

func toSDKMessages(msgs []transcript.Message) []types.Message {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		role := types.ConversationRoleUser
		if m.Role == transcript.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		content := make([]types.ContentBlock, 0, len(m.Content))
		for _, b := range m.Content {
			if cb := toSDKBlock(b); cb != nil {
				content = append(content, cb)
			}
		}
		out = append(out, types.Message{Role: role, Content: content})
	}
	return out
}

func toSDKBlock(b transcript.Block) types.ContentBlock {
	switch v := b.(type) {
	case transcript.Text:
		return &types.ContentBlockMemberText{Value: v.Text}
	case transcript.ToolUse:
		input := v.Input
		if input == nil {
			input = map[string]any{}
		}
		return &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
			ToolUseId: aws.String(v.ID),
			Name:      aws.String(v.Name),
			Input:     document.NewLazyDocument(input),
		}}
	case transcript.ToolResult:
		return &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
			ToolUseId: aws.String(v.ToolUseID),
			Content:   toSDKResultContent(v.Content),
			Status:    toSDKStatus(v.Status),
		}}
	default:
		return nil
	}
}

func toSDKResultContent(parts []transcript.ResultContent) []types.ToolResultContentBlock {
	out := make([]types.ToolResultContentBlock, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case transcript.Text:
			out = append(out, &types.ToolResultContentBlockMemberText{Value: v.Text})
		case transcript.Image:
			out = append(out, &types.ToolResultContentBlockMemberImage{Value: types.ImageBlock{
				Format: types.ImageFormat(v.Format),
				Source: &types.ImageSourceMemberBytes{Value: v.Bytes},
			}})
		}
	}
	return out
}

func toSDKStatus(s transcript.Status) types.ToolResultStatus {
	switch s {
	case transcript.StatusSuccess:
		return types.ToolResultStatusSuccess
	case transcript.StatusError:
		return types.ToolResultStatusError
	default:
		return ""
	}
}

// fromSDKContent keeps the text and tool-use blocks of a model reply.
func fromSDKContent(blocks []types.ContentBlock) ([]transcript.Block, error) {
	out := make([]transcript.Block, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case *types.ContentBlockMemberText:
			out = append(out, transcript.Text{Text: v.Value})
		case *types.ContentBlockMemberToolUse:
			input, err := decodeDocument(v.Value.Input)
			if err != nil {
				return nil, fmt.Errorf("tool use %s: %w", aws.ToString(v.Value.ToolUseId), err)
			}
			out = append(out, transcript.ToolUse{
				ID:    aws.ToString(v.Value.ToolUseId),
				Name:  aws.ToString(v.Value.Name),
				Input: input,
			})
		}
	}
	return out, nil
}

// decodeDocument turns a smithy document into plain JSON values so numbers
// arrive as float64.
func decodeDocument(doc document.Interface) (map[string]any, error) {
	if doc == nil {
		return map[string]any{}, nil
	}
	raw, err := doc.MarshalSmithyDocument()
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	out := map[string]any{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return out, nil
}
