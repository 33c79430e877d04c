package chat

import (
	"errors"
	"strings"
	"testing"
)

func validDiscoveryJSON() string {
	return `{
		"prompt": "A coffee shop site",
		"previewInstructions": ["warm colors", "hero image", "menu section"],
		"nextQuestion": "What's the vibe?",
		"speech": "Ooh, a coffee shop!",
		"readyToBuild": false
	}`
}

func TestDecodeStrict_Discovery(t *testing.T) {
	var resp DiscoveryResponse
	if err := decodeStrict([]byte(validDiscoveryJSON()), discoveryRequired, &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Prompt != "A coffee shop site" {
		t.Errorf("unexpected prompt: %q", resp.Prompt)
	}
	if len(resp.PreviewInstructions) != 3 {
		t.Errorf("expected 3 preview instructions, got %d", len(resp.PreviewInstructions))
	}
	if resp.ReadyToBuild {
		t.Error("expected readyToBuild=false")
	}
}

func TestDecodeStrict_MissingField(t *testing.T) {
	// speech removed
	raw := `{
		"prompt": "x",
		"previewInstructions": ["a", "b", "c"],
		"nextQuestion": "q",
		"readyToBuild": true
	}`
	var resp DiscoveryResponse
	err := decodeStrict([]byte(raw), discoveryRequired, &resp)
	if !errors.Is(err, ErrContentFormat) {
		t.Fatalf("expected ErrContentFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "speech") {
		t.Errorf("expected error to name the missing field, got %v", err)
	}
}

func TestDecodeStrict_UnknownField(t *testing.T) {
	raw := `{
		"websiteChange": null,
		"speech": "hi",
		"nextQuestion": "q",
		"surprise": true
	}`
	var resp EditingResponse
	err := decodeStrict([]byte(raw), editingRequired, &resp)
	if !errors.Is(err, ErrContentFormat) {
		t.Fatalf("expected ErrContentFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "surprise") {
		t.Errorf("expected error to name the unknown field, got %v", err)
	}
}

func TestDecodeStrict_WrongType(t *testing.T) {
	raw := `{
		"prompt": "x",
		"previewInstructions": "not an array",
		"nextQuestion": "q",
		"speech": "s",
		"readyToBuild": true
	}`
	var resp DiscoveryResponse
	if err := decodeStrict([]byte(raw), discoveryRequired, &resp); !errors.Is(err, ErrContentFormat) {
		t.Fatalf("expected ErrContentFormat, got %v", err)
	}
}

func TestDiscoveryResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DiscoveryResponse)
		wantErr bool
	}{
		{"valid", func(r *DiscoveryResponse) {}, false},
		{"too few instructions", func(r *DiscoveryResponse) {
			r.PreviewInstructions = []string{"a", "b"}
		}, true},
		{"too many instructions", func(r *DiscoveryResponse) {
			r.PreviewInstructions = make([]string, 13)
		}, true},
		{"instruction too long", func(r *DiscoveryResponse) {
			r.PreviewInstructions[0] = strings.Repeat("x", 151)
		}, true},
		{"prompt too long", func(r *DiscoveryResponse) {
			r.Prompt = strings.Repeat("x", 801)
		}, true},
		{"speech too long", func(r *DiscoveryResponse) {
			r.Speech = strings.Repeat("x", 301)
		}, true},
		{"question too long", func(r *DiscoveryResponse) {
			r.NextQuestion = strings.Repeat("x", 301)
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &DiscoveryResponse{
				Prompt:              "p",
				PreviewInstructions: []string{"a", "b", "c"},
				NextQuestion:        "q",
				Speech:              "s",
			}
			tt.mutate(resp)
			err := resp.Validate()
			if tt.wantErr && !errors.Is(err, ErrContentFormat) {
				t.Errorf("expected ErrContentFormat, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEditingResponse_Validate(t *testing.T) {
	long := strings.Repeat("x", 501)
	resp := &EditingResponse{WebsiteChange: &long, Speech: "s", NextQuestion: "q"}
	if err := resp.Validate(); !errors.Is(err, ErrContentFormat) {
		t.Errorf("expected ErrContentFormat for long websiteChange, got %v", err)
	}

	resp = &EditingResponse{WebsiteChange: nil, Speech: "s", NextQuestion: strings.Repeat("x", 201)}
	if err := resp.Validate(); !errors.Is(err, ErrContentFormat) {
		t.Errorf("expected ErrContentFormat for long nextQuestion, got %v", err)
	}

	resp = &EditingResponse{WebsiteChange: nil, Speech: "s", NextQuestion: "q"}
	if err := resp.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// The fallbacks stand in for model output, so they must pass the same
// validation the model output is held to.
func TestFallbacks_SatisfySchema(t *testing.T) {
	disc := FallbackDiscovery()
	if err := disc.Validate(); err != nil {
		t.Errorf("discovery fallback fails validation: %v", err)
	}
	if disc.ReadyToBuild {
		t.Error("discovery fallback must never be ready to build")
	}

	edit := FallbackEditing()
	if err := edit.Validate(); err != nil {
		t.Errorf("editing fallback fails validation: %v", err)
	}
	if edit.WebsiteChange != nil {
		t.Error("editing fallback must not carry a change")
	}
}
