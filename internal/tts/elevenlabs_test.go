package tts

import (
	"testing"

	"github.com/rs/zerolog"
)

func newVoiceProvider() *ElevenLabsProvider {
	cfg := DefaultElevenLabsConfig()
	cfg.APIKey = "test-key"
	return NewElevenLabsProvider(zerolog.Nop(), cfg)
}

func TestElevenLabs_ResolveVoice(t *testing.T) {
	p := newVoiceProvider()

	tests := []struct {
		name  string
		voice string
		want  string
	}{
		{"default when empty", "", "yj30vwTGJxSHezdAGsv9"},
		{"named voice", "rachel", "21m00Tcm4TlvDq8ikWAM"},
		{"case insensitive", "Dorothy", "ThT5KcBeYPX3keUQqHPh"},
		{"raw ID passthrough", "AbCdEfGhIjKlMnOpQrSt", "AbCdEfGhIjKlMnOpQrSt"},
		{"unknown falls back to default", "nobody", "yj30vwTGJxSHezdAGsv9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ResolveVoice(tt.voice); got != tt.want {
				t.Errorf("ResolveVoice(%q) = %q, want %q", tt.voice, got, tt.want)
			}
		})
	}
}

func TestIsVoiceID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yj30vwTGJxSHezdAGsv9", true},
		{"AbCdEfGhIjKlMnOpQrSt", true},
		{"tooshort", false},
		{"yj30vwTGJxSHezdAGsv9x", false}, // 21 chars
		{"yj30vwTGJxSHezdAGsv!", false},  // non-alphanumeric
		{"rachel", false},
	}
	for _, tt := range tests {
		if got := isVoiceID(tt.input); got != tt.want {
			t.Errorf("isVoiceID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		message string
		want    int
	}{
		{"quota exceeded for this month", 429},
		{"rate limit reached", 429},
		{"invalid voice selection", 400},
		{"unauthorized request", 401},
		{"missing API key", 401},
		{"something else entirely", 500},
	}
	for _, tt := range tests {
		if got := classifyMessage(tt.message); got != tt.want {
			t.Errorf("classifyMessage(%q) = %d, want %d", tt.message, got, tt.want)
		}
	}
}

func TestSynthesisError_UserMessage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{400, "Invalid voice selection. Please use a valid voice ID or name."},
		{401, "Speech synthesis authentication failed. Please check your API key."},
		{429, "Speech synthesis quota exceeded. Please try again later."},
		{500, "Failed to generate speech."},
		{418, "Failed to generate speech."},
	}
	for _, tt := range tests {
		err := &SynthesisError{Status: tt.status, Message: "detail"}
		if got := err.UserMessage(); got != tt.want {
			t.Errorf("status %d: got %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestElevenLabs_AvailableWithoutKey(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "")
	p := NewElevenLabsProvider(zerolog.Nop(), &ElevenLabsConfig{DefaultVoice: "jessa"})
	if p.Available() {
		t.Error("expected provider unavailable without API key")
	}
}
