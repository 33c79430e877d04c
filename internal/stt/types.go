// Package stt provides speech capture providers for voicebuilder.
package stt

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrProviderUnavailable = errors.New("capture provider unavailable")
	ErrAlreadyCapturing    = errors.New("capture already active")
)

// ErrorKind is the capture error taxonomy surfaced to the user-facing layer.
type ErrorKind string

const (
	ErrorNoSpeech         ErrorKind = "no-speech"
	ErrorPermissionDenied ErrorKind = "not-allowed"
	ErrorNetwork          ErrorKind = "network"
	ErrorOther            ErrorKind = "other"
)

// UserMessage maps a capture error to the message shown to the user.
func (k ErrorKind) UserMessage() string {
	const prefix = "Voice recognition failed. "
	switch k {
	case ErrorNetwork:
		return prefix + "Network error - please check your internet connection and try again."
	case ErrorPermissionDenied:
		return prefix + "Microphone access denied. Please allow microphone access."
	case ErrorNoSpeech:
		return prefix + "No speech detected. Please try speaking again."
	default:
		return prefix + "Please try again."
	}
}

// Sink receives completed utterances and capture errors. The turn
// orchestrator is the only Sink in production.
type Sink interface {
	OnUtterance(text string)
	OnCaptureError(kind ErrorKind, err error)
}

// CaptureProvider converts spoken audio to text utterances. Start begins a
// capture; completed utterances and errors flow to the Sink until Stop is
// called or the context is cancelled.
type CaptureProvider interface {
	// Name returns the provider identifier (e.g., "deepgram")
	Name() string

	// Start begins capturing. A second Start while active returns
	// ErrAlreadyCapturing.
	Start(ctx context.Context) error

	// Stop ends the active capture. Safe to call when idle.
	Stop()
}
