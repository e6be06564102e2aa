package providers

import (
	"testing"

	"github.com/nextlevelbuilder/agentbridge/internal/action"
)

func TestCleanToolSchemas_Bedrock(t *testing.T) {
	tools := []ToolSpec{{
		Name:        "computer_tool",
		Description: "desc",
		InputSchema: map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"$id":     "https://example.com/computer-input",
			"type":    "object",
			"properties": map[string]any{
				"coordinate": map[string]any{
					"type": "array",
					"$ref": "#/$defs/Point",
				},
			},
			"$defs":                map[string]any{"Point": "..."},
			"additionalProperties": false,
		},
	}}

	cleaned := CleanToolSchemas("bedrock", tools)
	if len(cleaned) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(cleaned))
	}
	if cleaned[0].Name != "computer_tool" || cleaned[0].Description != "desc" {
		t.Errorf("expected name and description kept, got %+v", cleaned[0])
	}

	schema := cleaned[0].InputSchema
	for _, key := range []string{"$schema", "$id", "$defs"} {
		if _, ok := schema[key]; ok {
			t.Errorf("expected key %q to be removed", key)
		}
	}
	if _, ok := schema["additionalProperties"]; !ok {
		t.Error("expected additionalProperties to remain for bedrock")
	}

	props := schema["properties"].(map[string]any)
	coord := props["coordinate"].(map[string]any)
	if _, ok := coord["$ref"]; ok {
		t.Error("expected nested $ref removed")
	}
	if coord["type"] != "array" {
		t.Error("expected nested type to remain")
	}

	// Source must not be mutated.
	if _, ok := tools[0].InputSchema["$schema"]; !ok {
		t.Error("expected original schema untouched")
	}
}

func TestCleanToolSchemas_ComputerInputSchema(t *testing.T) {
	cleaned := CleanSchemaForProvider("bedrock", action.InputSchema())
	if cleaned["type"] != "object" {
		t.Errorf("expected object schema, got %v", cleaned["type"])
	}
	if _, ok := cleaned["$schema"]; ok {
		t.Error("expected $schema removed from reflected schema")
	}
}

func TestCleanSchemaForProvider_Anthropic(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type": "string",
				"$ref": "#/$defs/URL",
			},
		},
		"$defs":   map[string]any{"URL": "..."},
		"$schema": "x",
	}

	cleaned := CleanSchemaForProvider("anthropic", params)
	if _, ok := cleaned["$defs"]; ok {
		t.Error("expected $defs removed for anthropic")
	}
	props := cleaned["properties"].(map[string]any)
	if _, ok := props["url"].(map[string]any)["$ref"]; ok {
		t.Error("expected nested $ref removed for anthropic")
	}
	if _, ok := cleaned["$schema"]; !ok {
		t.Error("expected $schema to remain for anthropic")
	}
}

func TestCleanToolSchemas_Unknown(t *testing.T) {
	tools := []ToolSpec{{Name: "test", InputSchema: map[string]any{"$ref": "something"}}}
	cleaned := CleanToolSchemas("openrouter", tools)
	if _, ok := cleaned[0].InputSchema["$ref"]; !ok {
		t.Error("expected $ref to remain for unknown provider")
	}
}

func TestCleanToolSchemas_Empty(t *testing.T) {
	if cleaned := CleanToolSchemas("bedrock", nil); cleaned != nil {
		t.Error("expected nil for nil tools")
	}
	if result := CleanSchemaForProvider("bedrock", nil); result != nil {
		t.Error("expected nil for nil schema")
	}
}

func TestCleanSchema_NestedArray(t *testing.T) {
	params := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string", "$id": "a"},
			map[string]any{"type": "number", "$ref": "#/defs/Num"},
			"literal",
		},
	}

	cleaned := CleanSchemaForProvider("bedrock", params)
	anyOf := cleaned["anyOf"].([]any)
	if len(anyOf) != 3 {
		t.Fatalf("expected 3 items, got %d", len(anyOf))
	}
	if _, ok := anyOf[0].(map[string]any)["$id"]; ok {
		t.Error("expected '$id' removed in array item")
	}
	if _, ok := anyOf[1].(map[string]any)["$ref"]; ok {
		t.Error("expected '$ref' removed in array item")
	}
	if anyOf[2] != "literal" {
		t.Error("expected scalar array items kept")
	}
}
