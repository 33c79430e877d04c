package stt

import (
	"context"
	"sync"
)

// ScriptProvider is a capture provider fed by explicit Push calls instead of
// a live audio stream. It backs the typed-input path and tests.
type ScriptProvider struct {
	sink   Sink
	filter *Filter

	mu     sync.Mutex
	active bool
}

// NewScriptProvider creates a push-based provider. filter may be nil.
func NewScriptProvider(sink Sink, filter *Filter) *ScriptProvider {
	return &ScriptProvider{sink: sink, filter: filter}
}

func (p *ScriptProvider) Name() string {
	return "script"
}

func (p *ScriptProvider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return ErrAlreadyCapturing
	}
	p.active = true
	return nil
}

func (p *ScriptProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
}

// Push delivers one utterance as if it had been spoken. Input pushed while
// the provider is stopped is ignored.
func (p *ScriptProvider) Push(text string) {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if !active {
		return
	}

	if p.filter != nil {
		cleaned, ok := p.filter.Clean(text)
		if !ok {
			p.sink.OnCaptureError(ErrorNoSpeech, nil)
			return
		}
		text = cleaned
	}
	p.sink.OnUtterance(text)
}
