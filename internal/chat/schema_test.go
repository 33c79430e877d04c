package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSchema(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	return schema
}

func TestDiscoverySchema_Shape(t *testing.T) {
	schema := decodeSchema(t, discoverySchema)

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "$id")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema must have properties")
	for _, field := range discoveryRequired {
		assert.Contains(t, props, field)
	}

	required, ok := schema["required"].([]any)
	require.True(t, ok, "schema must list required fields")
	assert.Len(t, required, len(discoveryRequired))
}

func TestDiscoverySchema_PreviewInstructionBounds(t *testing.T) {
	schema := decodeSchema(t, discoverySchema)
	props := schema["properties"].(map[string]any)
	preview := props["previewInstructions"].(map[string]any)

	assert.Equal(t, float64(3), preview["minItems"])
	assert.Equal(t, float64(12), preview["maxItems"])

	items, ok := preview["items"].(map[string]any)
	require.True(t, ok, "previewInstructions must constrain its items")
	assert.Equal(t, float64(150), items["maxLength"])
}

func TestEditingSchema_NullableWebsiteChange(t *testing.T) {
	schema := decodeSchema(t, editingSchema)
	props := schema["properties"].(map[string]any)
	change, ok := props["websiteChange"].(map[string]any)
	require.True(t, ok)

	types, ok := change["type"].([]any)
	require.True(t, ok, "websiteChange type must be a union")
	assert.ElementsMatch(t, []any{"string", "null"}, types)

	// Nullable means required-but-null, not optional.
	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "websiteChange")
}
