package bedrock

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/nextlevelbuilder/agentbridge/internal/action"
	"github.com/nextlevelbuilder/agentbridge/internal/providers"
)

const computerToolDescription = "Control the desktop: take screenshots, move the pointer, click, type, press keys and run shell commands."

// toolConfiguration offers the single computer tool.
func toolConfiguration() *types.ToolConfiguration {
	specs := providers.CleanToolSchemas("bedrock", []providers.ToolSpec{{
		Name:        action.ToolName,
		Description: computerToolDescription,
		InputSchema: action.InputSchema(),
	}})

	tools := make([]types.Tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
			Name:        aws.String(s.Name),
			Description: aws.String(s.Description),
			InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(s.InputSchema)},
		}})
	}
	return &types.ToolConfiguration{Tools: tools}
}

// additionalFields enables the model's native computer-use tool.
func additionalFields(cfg Config) map[string]any {
	toolType := cfg.ToolType
	if toolType == "" {
		toolType = DefaultToolType
	}
	beta := cfg.Beta
	if len(beta) == 0 {
		beta = []string{DefaultBeta}
	}
	return map[string]any{
		"tools": []any{
			map[string]any{
				"type":              toolType,
				"name":              "computer",
				"display_height_px": cfg.Display.Height,
				"display_width_px":  cfg.Display.Width,
				"display_number":    cfg.Display.Number,
			},
		},
		"anthropic_beta": beta,
	}
}
