// Package tts provides text-to-speech synthesis for spoken replies.
package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrProviderUnavailable = errors.New("TTS provider unavailable")

// Provider is the interface all synthesis providers implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "elevenlabs", "openai")
	Name() string

	// Synthesize converts text to audio
	Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error)

	// Available reports whether the provider is configured for use
	Available() bool
}

// SynthesizeRequest represents a synthesis request
type SynthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"` // voice name or raw voice ID
	Model string `json:"model,omitempty"`
}

// SynthesizeResponse represents a synthesis result
type SynthesizeResponse struct {
	Audio          []byte        `json:"audio"`
	Format         string        `json:"format"`
	ProcessingTime time.Duration `json:"processing_time"`
	VoiceID        string        `json:"voice_id"`
	Provider       string        `json:"provider"`
}

// SynthesisError carries the upstream status so callers can tell quota and
// auth failures apart from transient ones.
type SynthesisError struct {
	Status  int
	Message string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed (%d): %s", e.Status, e.Message)
}

// UserMessage returns a short explanation suitable for display.
func (e *SynthesisError) UserMessage() string {
	switch e.Status {
	case 400:
		return "Invalid voice selection. Please use a valid voice ID or name."
	case 401:
		return "Speech synthesis authentication failed. Please check your API key."
	case 429:
		return "Speech synthesis quota exceeded. Please try again later."
	default:
		return "Failed to generate speech."
	}
}

// classifyMessage maps an upstream error body to a status the way the
// response text reads, for providers that do not return clean status codes.
func classifyMessage(msg string) int {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "quota") || strings.Contains(lower, "limit"):
		return 429
	case strings.Contains(lower, "voice"):
		return 400
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api key"):
		return 401
	default:
		return 500
	}
}
