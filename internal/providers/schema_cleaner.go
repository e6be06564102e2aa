// Package providers holds helpers shared by agent runtime clients.
package providers

import "strings"

// Unsupported schema keys by provider.
// Bedrock Converse rejects documents carrying $schema, $id or references.
// Anthropic doesn't use: $ref, $defs.
var (
	bedrockUnsupportedKeys   = []string{"$schema", "$id", "$ref", "$defs"}
	anthropicUnsupportedKeys = []string{"$ref", "$defs"}
)

// ToolSpec describes one tool offered to the agent.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// CleanToolSchemas returns a copy of tools with provider-incompatible
// JSON Schema fields removed from each tool's input schema.
// Returns the original slice unchanged for providers that need no cleaning.
func CleanToolSchemas(providerName string, tools []ToolSpec) []ToolSpec {
	removeKeys := unsupportedKeysForProvider(providerName)
	if removeKeys == nil || len(tools) == 0 {
		return tools
	}

	cleaned := make([]ToolSpec, len(tools))
	for i, t := range tools {
		cleaned[i] = ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: cleanSchema(t.InputSchema, removeKeys),
		}
	}
	return cleaned
}

// CleanSchemaForProvider cleans a single schema map for a provider.
func CleanSchemaForProvider(providerName string, schema map[string]any) map[string]any {
	removeKeys := unsupportedKeysForProvider(providerName)
	if removeKeys == nil {
		return schema
	}
	return cleanSchema(schema, removeKeys)
}

func unsupportedKeysForProvider(name string) []string {
	switch {
	case name == "bedrock" || strings.HasPrefix(name, "bedrock-"):
		return bedrockUnsupportedKeys
	case name == "anthropic":
		return anthropicUnsupportedKeys
	default:
		return nil
	}
}

// cleanSchema recursively removes unsupported keys from a JSON Schema map.
func cleanSchema(schema map[string]any, removeKeys []string) map[string]any {
	if schema == nil {
		return nil
	}

	result := make(map[string]any, len(schema))
	for k, v := range schema {
		if shouldRemoveKey(k, removeKeys) {
			continue
		}

		switch val := v.(type) {
		case map[string]any:
			result[k] = cleanSchema(val, removeKeys)
		case []any:
			result[k] = cleanSchemaSlice(val, removeKeys)
		default:
			result[k] = v
		}
	}
	return result
}

// cleanSchemaSlice recurses into arrays (e.g. "anyOf", "oneOf", "allOf").
func cleanSchemaSlice(items []any, removeKeys []string) []any {
	result := make([]any, len(items))
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			result[i] = cleanSchema(m, removeKeys)
		} else {
			result[i] = item
		}
	}
	return result
}

func shouldRemoveKey(key string, removeKeys []string) bool {
	for _, rk := range removeKeys {
		if key == rk {
			return true
		}
	}
	return false
}
