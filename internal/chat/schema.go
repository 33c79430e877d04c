package chat

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// The two response schemas are reflected once from the Go types, then patched
// for the constraints struct tags cannot express: per-item string length on
// previewInstructions, and the explicit nullable type on websiteChange.
var (
	discoverySchema = mustSchema(&DiscoveryResponse{}, patchDiscoverySchema)
	editingSchema   = mustSchema(&EditingResponse{}, patchEditingSchema)
)

func mustSchema(v any, patch func(map[string]any) error) json.RawMessage {
	schema, err := buildSchema(v, patch)
	if err != nil {
		panic(fmt.Sprintf("chat: building response schema: %v", err))
	}
	return schema
}

// buildSchema reflects a strict JSON schema (all fields required, no
// additional properties) and applies the mode-specific patch.
func buildSchema(v any, patch func(map[string]any) error) (json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	data, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, err
	}

	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}

	// The hosted model's strict mode rejects metadata keywords.
	delete(schema, "$schema")
	delete(schema, "$id")

	if patch != nil {
		if err := patch(schema); err != nil {
			return nil, err
		}
	}

	return json.Marshal(schema)
}

func patchDiscoverySchema(schema map[string]any) error {
	items, err := property(schema, "previewInstructions")
	if err != nil {
		return err
	}
	itemSchema, ok := items["items"].(map[string]any)
	if !ok {
		return fmt.Errorf("previewInstructions has no items schema")
	}
	itemSchema["maxLength"] = maxInstructionLen
	return nil
}

func patchEditingSchema(schema map[string]any) error {
	change, err := property(schema, "websiteChange")
	if err != nil {
		return err
	}
	change["type"] = []any{"string", "null"}
	return nil
}

func property(schema map[string]any, name string) (map[string]any, error) {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema has no properties object")
	}
	prop, ok := props[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema has no %q property", name)
	}
	return prop, nil
}
