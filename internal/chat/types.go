// Package chat is the structured inference client: it calls the hosted
// language model with a strict per-mode JSON schema and turns the output
// into validated response values, repairing or falling back on malformed
// content.
package chat

import (
	"encoding/json"
	"fmt"
)

// Field bounds shared by the request schemas and local validation.
const (
	maxPromptLen            = 800
	maxInstructionLen       = 150
	minPreviewInstructions  = 3
	maxPreviewInstructions  = 12
	maxSpeechLen            = 300
	maxQuestionLen          = 300
	maxEditorQuestionLen    = 200
	maxChangeDescriptionLen = 500
)

// DiscoveryResponse is the model's structured answer during discovery:
// working toward a finalized website build specification.
type DiscoveryResponse struct {
	Prompt              string   `json:"prompt" jsonschema:"maxLength=800"`
	PreviewInstructions []string `json:"previewInstructions" jsonschema:"minItems=3,maxItems=12"`
	NextQuestion        string   `json:"nextQuestion" jsonschema:"maxLength=300"`
	Speech              string   `json:"speech" jsonschema:"maxLength=300"`
	ReadyToBuild        bool     `json:"readyToBuild"`
}

// EditingResponse is the model's structured answer while editing an existing
// website. WebsiteChange is nil exactly when the turn produced no actionable
// change.
type EditingResponse struct {
	WebsiteChange *string `json:"websiteChange" jsonschema:"maxLength=500"`
	Speech        string  `json:"speech" jsonschema:"maxLength=300"`
	NextQuestion  string  `json:"nextQuestion" jsonschema:"maxLength=200"`
}

var (
	discoveryRequired = []string{"prompt", "previewInstructions", "nextQuestion", "speech", "readyToBuild"}
	editingRequired   = []string{"websiteChange", "speech", "nextQuestion"}
)

// Validate checks the schema bounds the model was asked to honor.
func (r *DiscoveryResponse) Validate() error {
	if len(r.Prompt) > maxPromptLen {
		return fmt.Errorf("%w: prompt exceeds %d chars", ErrContentFormat, maxPromptLen)
	}
	if n := len(r.PreviewInstructions); n < minPreviewInstructions || n > maxPreviewInstructions {
		return fmt.Errorf("%w: previewInstructions has %d items, want %d-%d",
			ErrContentFormat, n, minPreviewInstructions, maxPreviewInstructions)
	}
	for i, inst := range r.PreviewInstructions {
		if len(inst) > maxInstructionLen {
			return fmt.Errorf("%w: previewInstructions[%d] exceeds %d chars", ErrContentFormat, i, maxInstructionLen)
		}
	}
	if len(r.NextQuestion) > maxQuestionLen {
		return fmt.Errorf("%w: nextQuestion exceeds %d chars", ErrContentFormat, maxQuestionLen)
	}
	if len(r.Speech) > maxSpeechLen {
		return fmt.Errorf("%w: speech exceeds %d chars", ErrContentFormat, maxSpeechLen)
	}
	return nil
}

// Validate checks the schema bounds the model was asked to honor.
func (r *EditingResponse) Validate() error {
	if r.WebsiteChange != nil && len(*r.WebsiteChange) > maxChangeDescriptionLen {
		return fmt.Errorf("%w: websiteChange exceeds %d chars", ErrContentFormat, maxChangeDescriptionLen)
	}
	if len(r.Speech) > maxSpeechLen {
		return fmt.Errorf("%w: speech exceeds %d chars", ErrContentFormat, maxSpeechLen)
	}
	if len(r.NextQuestion) > maxEditorQuestionLen {
		return fmt.Errorf("%w: nextQuestion exceeds %d chars", ErrContentFormat, maxEditorQuestionLen)
	}
	return nil
}

// FallbackDiscovery returns the fixed neutral response used when discovery
// output is irreparably malformed. It satisfies the discovery schema.
func FallbackDiscovery() *DiscoveryResponse {
	return &DiscoveryResponse{
		Prompt: "",
		PreviewInstructions: []string{
			"clean modern layout",
			"readable typography",
			"mobile friendly design",
		},
		NextQuestion: "Could you tell me that again?",
		Speech:       "Oops, I didn't quite catch that! Could you say it one more time?",
		ReadyToBuild: false,
	}
}

// FallbackEditing returns the fixed neutral response used when editing
// output is irreparably malformed. It satisfies the editing schema.
func FallbackEditing() *EditingResponse {
	return &EditingResponse{
		WebsiteChange: nil,
		Speech:        "Oops, I missed that! Could you tell me again what you'd like to change?",
		NextQuestion:  "What would you like to change?",
	}
}

// decodeStrict unmarshals data into v, rejecting any missing required field
// or unknown field instead of accepting them optimistically.
func decodeStrict(data []byte, required []string, v any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrContentFormat, err)
	}

	allowed := make(map[string]struct{}, len(required))
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrContentFormat, key)
		}
		allowed[key] = struct{}{}
	}
	for key := range fields {
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrContentFormat, key)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrContentFormat, err)
	}
	return nil
}
